package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

func newMarketplace(ledger *fakeLedger) MarketplaceService {
	walker := NewRegistryWalker(ledger, RegistryWalkerConfig{Fanout: 4}, testLogger())
	materializer := NewObjectMaterializer(ledger, testPackage, testLogger())
	return NewMarketplaceService(walker, materializer, testRegistry, 4, testLogger())
}

func TestMarketplaceListStudentsEndToEnd(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("students", "investors", "contracts")
	ledger.fieldPages[tableFor("students")] = []sui.DynamicFieldPage{{Data: []sui.DynamicFieldInfo{addressField("0x51")}}}
	ledger.seedTableValue("students", "0x51", "0x5a")
	ledger.objects["0x5a"] = studentObject("0x5a", `{
		"id": {"id": "0x5a"},
		"name": "Ada",
		"surname": "Lovelace",
		"funding_requested": "50000",
		"equity_percentage": "15",
		"duration_months": "24"
	}`)

	students, err := newMarketplace(ledger).ListStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "0x5a", students[0].ID)
	require.Equal(t, uint64(50000), students[0].FundingRequested)
	require.Equal(t, uint64(15), students[0].EquityPercentage)
}

func TestMarketplaceSkipsUndecodableAndVanishedMembers(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("students")
	ledger.fieldPages[tableFor("students")] = []sui.DynamicFieldPage{{Data: []sui.DynamicFieldInfo{addressField("0x51"), addressField("0x52")}}}
	ledger.seedTableValue("students", "0x51", "0x5a", "0x5gone")
	ledger.seedTableValue("students", "0x52", "0x5b")
	ledger.objects["0x5a"] = studentObject("0x5a", `{"name":"Ada","equity_percentage":"abc","duration_months":"1"}`)
	ledger.objects["0x5b"] = studentObject("0x5b", `{"name":"Alan","equity_percentage":"5","duration_months":"1"}`)

	students, err := newMarketplace(ledger).ListStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, "Alan", students[0].Name)
}

func TestMarketplaceUnavailableCollectionListsEmpty(t *testing.T) {
	ledger := newFakeLedger()
	ledger.objectErrs[testRegistry] = errors.New("dial tcp: refused")

	investors, err := newMarketplace(ledger).ListInvestors(context.Background())
	require.NoError(t, err)
	require.NotNil(t, investors)
	require.Empty(t, investors)
}

func TestMarketplaceGetReturnsNotFound(t *testing.T) {
	ledger := newFakeLedger()
	svc := newMarketplace(ledger)

	_, err := svc.GetContract(context.Background(), "0xc404")
	require.ErrorIs(t, err, ErrEntityNotFound)

	_, err = svc.GetInvestor(context.Background(), "0xi404")
	require.ErrorIs(t, err, ErrEntityNotFound)
}

func TestMarketplaceContractsFor(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("contracts")
	ledger.seedTableValue("contracts", "0x1a", "0xc1")
	ledger.objects["0xc1"] = moveObject("0xc1", testPackage+"::contract::Contract", `{
		"student_address":"0x51","investor_address":"0x1a",
		"funding_amount":"1","equity_percentage":"1","duration_months":"1"
	}`)

	contracts, err := newMarketplace(ledger).ContractsFor(context.Background(), "0x1a")
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	require.Equal(t, "0x51", contracts[0].StudentAddress)
}
