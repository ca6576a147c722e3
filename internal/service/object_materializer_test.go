package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edudefi-go-api/internal/models"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
)

func TestMaterializerDecodesStudentFromStrings(t *testing.T) {
	ledger := newFakeLedger()
	ledger.objects["0x5a"] = studentObject("0x5a", `{
		"id": {"id": "0x5a"},
		"name": "Ada",
		"surname": "Lovelace",
		"age": "21",
		"cv_url": "bafycv",
		"funding_requested": "50000",
		"equity_percentage": "15",
		"duration_months": 12
	}`)

	materializer := NewObjectMaterializer(ledger, testPackage, testLogger())
	student, err := materializer.Student(context.Background(), "0x5a")
	require.NoError(t, err)
	require.NotNil(t, student)
	require.Equal(t, uint64(50000), student.FundingRequested)
	require.Equal(t, uint64(15), student.EquityPercentage)
	require.Equal(t, uint64(12), student.DurationMonths)
	require.Equal(t, "bafycv", student.CVHash)
	require.Equal(t, "0x51", student.Owner)
	require.Equal(t, "Ada Lovelace", student.FullName())
}

func TestMaterializerMissingOptionalNumericIsZero(t *testing.T) {
	ledger := newFakeLedger()
	ledger.objects["0x5a"] = studentObject("0x5a", `{"name":"Ada","surname":"L","equity_percentage":"10","duration_months":"6"}`)

	student, err := NewObjectMaterializer(ledger, testPackage, testLogger()).Student(context.Background(), "0x5a")
	require.NoError(t, err)
	require.Equal(t, uint64(0), student.FundingRequested)
	require.Equal(t, uint64(0), student.Age)
}

func TestMaterializerRejectsMalformedFields(t *testing.T) {
	cases := []struct {
		name   string
		fields string
		field  string
	}{
		{name: "non numeric", fields: `{"equity_percentage":"abc","duration_months":"6"}`, field: "equity_percentage"},
		{name: "negative", fields: `{"equity_percentage":"5","duration_months":"-1"}`, field: "duration_months"},
		{name: "fractional", fields: `{"equity_percentage":"5.5","duration_months":"6"}`, field: "equity_percentage"},
		{name: "equity over 100", fields: `{"equity_percentage":"101","duration_months":"6"}`, field: "equity_percentage"},
		{name: "zero duration", fields: `{"equity_percentage":"5","duration_months":"0"}`, field: "duration_months"},
		{name: "missing required", fields: `{"duration_months":"6"}`, field: "equity_percentage"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newFakeLedger()
			ledger.objects["0x5a"] = studentObject("0x5a", tc.fields)

			student, err := NewObjectMaterializer(ledger, testPackage, testLogger()).Student(context.Background(), "0x5a")
			require.Nil(t, student)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			require.Equal(t, tc.field, fieldErr.Field)
			require.Equal(t, models.EntityStudent, fieldErr.Kind)
		})
	}
}

func TestMaterializerReturnsNilForAbsentOrForeignObjects(t *testing.T) {
	ledger := newFakeLedger()
	ledger.objects["0xpkgobj"] = &sui.ObjectData{ObjectID: "0xpkgobj", Content: &sui.MoveContent{DataType: sui.DataTypePackage}}
	ledger.objects["0xother"] = moveObject("0xother", "0xdead::student::Student", `{"equity_percentage":"1","duration_months":"1"}`)
	ledger.objects["0xinv"] = moveObject("0xinv", testPackage+"::investor::Investor", `{"name":"Grace"}`)
	ledger.objectErrs["0xbroken"] = errors.New("connection reset")

	materializer := NewObjectMaterializer(ledger, testPackage, testLogger())
	ctx := context.Background()

	for _, id := range []string{"0xmissing", "0xpkgobj", "0xother", "0xinv", "0xbroken"} {
		student, err := materializer.Student(ctx, id)
		require.NoError(t, err, id)
		require.Nil(t, student, id)
	}
}

func TestMaterializerDecodesContractOptionalPool(t *testing.T) {
	ledger := newFakeLedger()
	ledger.objects["0xc1"] = moveObject("0xc1", testPackage+"::contract::Contract", `{
		"id": {"id": "0xc1"},
		"student_address": "0x51",
		"investor_address": "0x1a",
		"pdf_hash": "blob",
		"funding_amount": "100000000000",
		"release_interval_days": "30",
		"equity_percentage": "10",
		"duration_months": "12",
		"balance": {"value": "25"},
		"is_active": true,
		"reward_pool_id": {"vec": ["0xpool"]},
		"has_tokens_issued": true
	}`)
	ledger.objects["0xc2"] = moveObject("0xc2", testPackage+"::contract::Contract", `{
		"funding_amount": 5,
		"equity_percentage": 1,
		"duration_months": 1,
		"reward_pool_id": {"vec": []}
	}`)

	materializer := NewObjectMaterializer(ledger, testPackage, testLogger())

	funded, err := materializer.Contract(context.Background(), "0xc1")
	require.NoError(t, err)
	require.Equal(t, uint64(100_000_000_000), funded.FundingAmount)
	require.Equal(t, uint64(25), funded.Balance)
	require.True(t, funded.IsActive)
	require.NotNil(t, funded.RewardPoolID)
	require.Equal(t, "0xpool", *funded.RewardPoolID)
	require.Equal(t, "0x51", funded.StudentAddress)

	pending, err := materializer.Contract(context.Background(), "0xc2")
	require.NoError(t, err)
	require.Nil(t, pending.RewardPoolID)
	require.Equal(t, "0xc2", pending.ID)
}
