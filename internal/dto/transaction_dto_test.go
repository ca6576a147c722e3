package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

func TestPreparedResponseSummarisesFundPayload(t *testing.T) {
	payload := sui.Payload{
		Action: "fund_contract",
		MoveCall: sui.MoveCall{
			Package:   "0xa11ce",
			Module:    "contract",
			Function:  "fund_contract_with_tokens",
			Arguments: []sui.Argument{sui.Object("0xc1"), sui.SplitGas(2_500_000_000), sui.Object("0x6")},
		},
	}

	response := NewPreparedTransactionResponse("0xinvestor", payload)
	require.Equal(t, "0xa11ce::contract::fund_contract_with_tokens", response.Target)
	require.Equal(t, []string{"0xc1", "0x6"}, response.Objects)
	require.Equal(t, "2.5", response.Amount)
}

func TestPreparedResponseOmitsAmountWithoutCoin(t *testing.T) {
	payload := sui.Payload{
		Action: "accept_contract",
		MoveCall: sui.MoveCall{
			Package:   "0xa11ce",
			Module:    "contract",
			Function:  "accept_contract",
			Arguments: []sui.Argument{sui.Object("0xABC")},
		},
	}

	response := NewPreparedTransactionResponse("0xstudent", payload)
	require.Equal(t, []string{"0xABC"}, response.Objects)
	require.Empty(t, response.Amount)
}
