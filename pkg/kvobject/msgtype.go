package kvobject

import "fmt"

// MsgType identifies the business kind of an envelope's payload. It is
// encoded as exactly one byte on the wire. The table is closed and densely
// packed from 0x01; byte 0x00 and anything past the last variant are
// invalid.
type MsgType uint8

const (
	MsgTypeIssueQuotaRequest   MsgType = 0x01
	MsgTypeQuotaControlField   MsgType = 0x02
	MsgTypeDigitalCurrency     MsgType = 0x03
	MsgTypeQuotaRecycleReceipt MsgType = 0x04
	MsgTypeConvertQuotaRequest MsgType = 0x05
	MsgTypeTransaction         MsgType = 0x06
)

// DecodeMsgType maps a tag byte to its variant. Unmapped bytes fail with
// ErrFindType.
func DecodeMsgType(b byte) (MsgType, error) {
	switch b {
	case 0x01:
		return MsgTypeIssueQuotaRequest, nil
	case 0x02:
		return MsgTypeQuotaControlField, nil
	case 0x03:
		return MsgTypeDigitalCurrency, nil
	case 0x04:
		return MsgTypeQuotaRecycleReceipt, nil
	case 0x05:
		return MsgTypeConvertQuotaRequest, nil
	case 0x06:
		return MsgTypeTransaction, nil
	default:
		return 0, fmt.Errorf("%w: tag byte 0x%02x", ErrFindType, b)
	}
}

// Byte returns the wire encoding of the tag. It is the exact inverse of
// DecodeMsgType for every live variant.
func (t MsgType) Byte() byte {
	return byte(t)
}

// Valid reports whether t is a variant of the live table.
func (t MsgType) Valid() bool {
	return t >= MsgTypeIssueQuotaRequest && t <= MsgTypeTransaction
}

func (t MsgType) String() string {
	switch t {
	case MsgTypeIssueQuotaRequest:
		return "IssueQuotaRequest"
	case MsgTypeQuotaControlField:
		return "QuotaControlField"
	case MsgTypeDigitalCurrency:
		return "DigitalCurrency"
	case MsgTypeQuotaRecycleReceipt:
		return "QuotaRecycleReceipt"
	case MsgTypeConvertQuotaRequest:
		return "ConvertQuotaRequest"
	case MsgTypeTransaction:
		return "Transaction"
	default:
		return fmt.Sprintf("MsgType(0x%02x)", byte(t))
	}
}

// PeekMsgType reads only the leading tag byte of an encoded envelope so a
// consumer can dispatch on type before committing to a full decode.
func PeekMsgType(data []byte) (MsgType, error) {
	if len(data) < msgTypeLen {
		return 0, fmt.Errorf("%w: buffer too short for tag", ErrFindType)
	}
	return DecodeMsgType(data[msgTypeOffset])
}
