package xnl

// Opcode identifies an XNL-CTRL message's purpose. These live in the
// XNL-CTRL namespace and are distinct from xcmp.Opcode, which travels
// as an XNL frame's payload once a session reaches Ready.
type Opcode uint16

const (
	OpDeviceMasterQuery    Opcode = 0x0000
	OpMasterStatusBcast    Opcode = 0x0001
	OpDeviceAuthKeyRequest Opcode = 0x0010
	OpDeviceAuthKeyReply   Opcode = 0x0011
	OpDeviceConnRequest    Opcode = 0x0020
	OpDeviceConnReply      Opcode = 0x0021
	OpDataMsg              Opcode = 0x0030
	OpDataMsgAck           Opcode = 0x0031
)
