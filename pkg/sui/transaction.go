package sui

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// ClockObjectID is the shared system clock object.
const ClockObjectID = "0x6"

// ArgumentKind is the wire type tag of a Move call argument.
type ArgumentKind string

// Argument kinds understood by wallet bridges.
const (
	ArgAddress ArgumentKind = "address"
	ArgString  ArgumentKind = "string"
	ArgU64     ArgumentKind = "u64"
	ArgObject  ArgumentKind = "object"
	// ArgSplitGas is a coin split from the gas coin; Value holds the amount in base units.
	ArgSplitGas ArgumentKind = "split_gas"
)

// Argument is a positional, type-tagged Move call argument. Numbers are encoded as decimal
// strings so u64 values survive JSON round trips.
type Argument struct {
	Kind  ArgumentKind `json:"kind"`
	Value string       `json:"value"`
}

// Address encodes an address argument.
func Address(v string) Argument { return Argument{Kind: ArgAddress, Value: v} }

// String encodes a UTF-8 string argument.
func String(v string) Argument { return Argument{Kind: ArgString, Value: v} }

// U64 encodes an unsigned 64-bit argument.
func U64(v uint64) Argument { return Argument{Kind: ArgU64, Value: strconv.FormatUint(v, 10)} }

// Object encodes an object reference argument.
func Object(id string) Argument { return Argument{Kind: ArgObject, Value: id} }

// SplitGas encodes a coin of amount base units split from the gas coin.
func SplitGas(amount uint64) Argument {
	return Argument{Kind: ArgSplitGas, Value: strconv.FormatUint(amount, 10)}
}

// Uint returns the numeric value of u64 and split_gas arguments.
func (a Argument) Uint() (uint64, error) {
	if a.Kind != ArgU64 && a.Kind != ArgSplitGas {
		return 0, fmt.Errorf("argument of kind %s is not numeric", a.Kind)
	}
	return strconv.ParseUint(a.Value, 10, 64)
}

// MoveCall names a Move function and its positional arguments.
type MoveCall struct {
	Package   string     `json:"package"`
	Module    string     `json:"module"`
	Function  string     `json:"function"`
	Arguments []Argument `json:"arguments"`
}

// Target returns the fully-qualified package::module::function target.
func (m MoveCall) Target() string {
	return fmt.Sprintf("%s::%s::%s", m.Package, m.Module, m.Function)
}

// Payload is an unsigned single-call transaction handed to a wallet for signing.
type Payload struct {
	Action   string   `json:"action"`
	MoveCall MoveCall `json:"move_call"`
}

// Target returns the call target of the payload.
func (p Payload) Target() string {
	return p.MoveCall.Target()
}

// ObjectArguments returns the values of all object-reference arguments in order.
func (p Payload) ObjectArguments() []string {
	ids := make([]string, 0, len(p.MoveCall.Arguments))
	for _, arg := range p.MoveCall.Arguments {
		if arg.Kind == ArgObject {
			ids = append(ids, arg.Value)
		}
	}
	return ids
}

// IsValidAddress reports whether v is a 0x-prefixed hex address or object id of at most 32 bytes.
func IsValidAddress(v string) bool {
	if !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "0X") {
		return false
	}
	body := v[2:]
	if body == "" || len(body) > 64 {
		return false
	}
	if len(body)%2 == 1 {
		body = "0" + body
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// NormalizeAddress lower-cases v and left-pads it to the full 32-byte form.
func NormalizeAddress(v string) string {
	trimmed := strings.ToLower(strings.TrimSpace(v))
	if !IsValidAddress(trimmed) {
		return trimmed
	}
	return "0x" + strings.Repeat("0", 64-len(trimmed[2:])) + trimmed[2:]
}
