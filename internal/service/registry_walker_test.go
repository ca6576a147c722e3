package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

func TestRegistryWalkerMissingRegistryOrCollectionIsEmpty(t *testing.T) {
	ledger := newFakeLedger()
	walker := NewRegistryWalker(ledger, RegistryWalkerConfig{}, testLogger())
	ctx := context.Background()

	members, err := walker.ListMembers(ctx, testRegistry, "students")
	require.NoError(t, err)
	require.Empty(t, members)

	ledger.seedRegistry("contracts")
	members, err = walker.ListMembers(ctx, testRegistry, "students")
	require.NoError(t, err)
	require.Empty(t, members)

	members, err = walker.ListMembers(ctx, "", "students")
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestRegistryWalkerFollowsCursorAcrossPages(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("students")
	ledger.fieldPages[tableFor("students")] = []sui.DynamicFieldPage{
		{Data: []sui.DynamicFieldInfo{addressField("0x51"), addressField("0x52")}},
		{Data: []sui.DynamicFieldInfo{addressField("0x53")}},
	}
	ledger.seedTableValue("students", "0x51", "0x5a")
	ledger.seedTableValue("students", "0x52", "0x5b", "0x5c")
	ledger.seedTableValue("students", "0x53", "0x5d")

	walker := NewRegistryWalker(ledger, RegistryWalkerConfig{PageLimit: 2}, testLogger())
	members, err := walker.ListMembers(context.Background(), testRegistry, "students")
	require.NoError(t, err)
	require.Equal(t, []string{"0x5a", "0x5b", "0x5c", "0x5d"}, members)
	require.Equal(t, 2, ledger.callCount("getDynamicFields"))
}

func TestRegistryWalkerFanoutPreservesDiscoveryOrder(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("contracts")
	ledger.fieldPages[tableFor("contracts")] = []sui.DynamicFieldPage{
		{Data: []sui.DynamicFieldInfo{addressField("0x1"), addressField("0x2"), addressField("0x3")}},
	}
	ledger.seedTableValue("contracts", "0x1", "0xc1")
	ledger.seedTableValue("contracts", "0x2", "0xc2")
	ledger.seedTableValue("contracts", "0x3", "0xc3")
	ledger.fieldDelay[tableFor("contracts")+`|"0x1"`] = 30 * time.Millisecond

	walker := NewRegistryWalker(ledger, RegistryWalkerConfig{Fanout: 3}, testLogger())
	entries, err := walker.Entries(context.Background(), testRegistry, "contracts")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "0x1", entries[0].Key)
	require.Equal(t, []string{"0xc1"}, entries[0].Members)
	require.Equal(t, "0x3", entries[2].Key)
}

func TestRegistryWalkerObjectFieldsSkipSecondaryFetch(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("investors")
	field := addressField("0x1a")
	field.Type = sui.DynamicFieldKindObject
	field.ObjectID = "0xi1"
	ledger.fieldPages[tableFor("investors")] = []sui.DynamicFieldPage{{Data: []sui.DynamicFieldInfo{field, addressField("0x1b")}}}

	walker := NewRegistryWalker(ledger, RegistryWalkerConfig{}, testLogger())
	members, err := walker.ListMembers(context.Background(), testRegistry, "investors")
	require.NoError(t, err)
	require.Equal(t, []string{"0xi1"}, members)
	require.Equal(t, 1, ledger.callCount("getDynamicFieldObject"))
}

func TestRegistryWalkerPageFailureIsUnavailable(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("students")
	ledger.fieldsErr = errors.New("node overloaded")

	walker := NewRegistryWalker(ledger, RegistryWalkerConfig{}, testLogger())
	_, err := walker.ListMembers(context.Background(), testRegistry, "students")
	require.ErrorIs(t, err, ErrCollectionUnavailable)
}

func TestRegistryWalkerMembersForKey(t *testing.T) {
	ledger := newFakeLedger()
	ledger.seedRegistry("contracts")
	ledger.seedTableValue("contracts", "0x51", "0xc1", "0xc2")
	ledger.fieldErrs[tableFor("contracts")+`|"0xbad"`] = errors.New("timeout")

	walker := NewRegistryWalker(ledger, RegistryWalkerConfig{}, testLogger())
	ctx := context.Background()

	members, err := walker.MembersForKey(ctx, testRegistry, "contracts", "0x51")
	require.NoError(t, err)
	require.Equal(t, []string{"0xc1", "0xc2"}, members)

	members, err = walker.MembersForKey(ctx, testRegistry, "contracts", "0x99")
	require.NoError(t, err)
	require.Empty(t, members)

	_, err = walker.MembersForKey(ctx, testRegistry, "contracts", "0xbad")
	require.ErrorIs(t, err, ErrCollectionUnavailable)
}
