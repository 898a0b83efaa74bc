package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kertas/internal/domain"
	"kertas/internal/service"
)

func TestRepairDuplicates_MergesSameCustomerGroup(t *testing.T) {
	t.Parallel()

	repo := newFakeInvoiceRepository()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	canonical := repo.seed("1042", "cust-a", base, testItem(100))
	repo.seed("1042-2", "cust-a", base.Add(time.Minute), testItem(30))
	repo.seed("1042-3", "cust-a", base.Add(2*time.Minute), testItem(20))

	svc := service.NewRepairService(repo)

	report, err := svc.RepairDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.GroupsExamined)
	assert.Equal(t, 2, report.InvoicesMerged)
	assert.Equal(t, 0, report.Renumbered)
	assert.Equal(t, 0, report.SkippedGroups)

	// Exactly one invoice numbered 1042 remains, holding all items
	merged, err := repo.GetInvoiceByID(context.Background(), canonical.ID)
	require.NoError(t, err)
	assert.Equal(t, "1042", merged.InvoiceNumber)
	assert.Len(t, merged.Items, 3)
	assert.True(t, merged.TotalAmount.Equal(decimal.NewFromInt(150)),
		"total should equal the sum of all merged line totals, got %s", merged.TotalAmount)

	remaining, err := repo.ListAllForRepair(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestRepairDuplicates_MergeKeepsPaymentsFromDuplicates(t *testing.T) {
	t.Parallel()

	repo := newFakeInvoiceRepository()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	canonical := repo.seed("1042", "cust-a", base, testItem(100))
	dup := repo.seed("1042-2", "cust-a", base.Add(time.Minute), testItem(30))

	_, err := repo.RecordPayment(context.Background(), &domain.Payment{
		InvoiceID: dup.ID,
		Amount:    decimal.NewFromInt(30),
		Method:    "transfer",
	})
	require.NoError(t, err)

	svc := service.NewRepairService(repo)

	_, err = svc.RepairDuplicates(context.Background(), false)
	require.NoError(t, err)

	merged, err := repo.GetInvoiceByID(context.Background(), canonical.ID)
	require.NoError(t, err)
	assert.True(t, merged.TotalAmount.Equal(decimal.NewFromInt(130)))
	assert.True(t, merged.PaidAmount.Equal(decimal.NewFromInt(30)),
		"payments received against duplicates must survive the merge")
	assert.True(t, merged.Balance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, domain.InvoiceStatusPartial, merged.Status)
}

func TestRepairDuplicates_RenumbersAcrossCustomers(t *testing.T) {
	t.Parallel()

	repo := newFakeInvoiceRepository()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	keeper := repo.seed("1042", "cust-a", base, testItem(10))
	other := repo.seed("1042-2", "cust-b", base.Add(time.Minute), testItem(20))
	repo.seed("2000", "cust-c", base.Add(2*time.Minute), testItem(5)) // global max

	svc := service.NewRepairService(repo)

	report, err := svc.RepairDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.GroupsExamined)
	assert.Equal(t, 0, report.InvoicesMerged)
	assert.Equal(t, 1, report.Renumbered)

	// The keeper is untouched and still belongs to customer A
	kept, err := repo.GetInvoiceByID(context.Background(), keeper.ID)
	require.NoError(t, err)
	assert.Equal(t, "1042", kept.InvoiceNumber)
	assert.Equal(t, "cust-a", kept.CustomerID)

	// The other invoice moved strictly past the pre-repair global max
	moved, err := repo.GetInvoiceByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, "2001", moved.InvoiceNumber)
	assert.Equal(t, "cust-b", moved.CustomerID)
}

func TestRepairDuplicates_Idempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeInvoiceRepository()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.seed("1042", "cust-a", base, testItem(100))
	repo.seed("1042-2", "cust-a", base.Add(time.Minute), testItem(30))
	repo.seed("1100", "cust-a", base.Add(time.Hour), testItem(10))
	repo.seed("1100-2", "cust-b", base.Add(2*time.Hour), testItem(10))

	svc := service.NewRepairService(repo)

	first, err := svc.RepairDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.GroupsExamined)
	assert.False(t, first.Clean())

	second, err := svc.RepairDuplicates(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, second.Clean())
	assert.Equal(t, 0, second.GroupsExamined)
	assert.Equal(t, 0, second.InvoicesMerged)
	assert.Equal(t, 0, second.Renumbered)
	assert.Equal(t, 0, second.SkippedGroups)
	assert.Empty(t, second.Actions)
}

func TestRepairDuplicates_DryRunChangesNothing(t *testing.T) {
	t.Parallel()

	repo := newFakeInvoiceRepository()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.seed("1042", "cust-a", base, testItem(100))
	repo.seed("1042-2", "cust-a", base.Add(time.Minute), testItem(30))

	svc := service.NewRepairService(repo)

	report, err := svc.RepairDuplicates(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.InvoicesMerged)

	// Nothing actually changed
	remaining, err := repo.ListAllForRepair(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestRepairDuplicates_FailedGroupIsSkippedNotFatal(t *testing.T) {
	t.Parallel()

	repo := newFakeInvoiceRepository()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	broken := repo.seed("1042", "cust-a", base, testItem(100))
	repo.seed("1042-2", "cust-a", base.Add(time.Minute), testItem(30))
	repo.seed("1100", "cust-a", base.Add(time.Hour), testItem(10))
	healthy := repo.seed("1100-2", "cust-a", base.Add(2*time.Hour), testItem(10))
	repo.failMerge[broken.ID] = true

	svc := service.NewRepairService(repo)

	report, err := svc.RepairDuplicates(context.Background(), false)
	require.NoError(t, err, "a failing group must not abort the batch")
	assert.Equal(t, 2, report.GroupsExamined)
	assert.Equal(t, 1, report.SkippedGroups)
	assert.Equal(t, 1, report.InvoicesMerged)

	// The healthy group was still merged
	_, err = repo.GetInvoiceByID(context.Background(), healthy.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepairDuplicates_CanonicalIsUnsuffixedMember(t *testing.T) {
	t.Parallel()

	repo := newFakeInvoiceRepository()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	// The suffixed member is older; canonical must still be the
	// unsuffixed one.
	repo.seed("1042-2", "cust-a", base, testItem(30))
	unsuffixed := repo.seed("1042", "cust-a", base.Add(time.Hour), testItem(100))

	svc := service.NewRepairService(repo)

	_, err := svc.RepairDuplicates(context.Background(), false)
	require.NoError(t, err)

	kept, err := repo.GetInvoiceByID(context.Background(), unsuffixed.ID)
	require.NoError(t, err)
	assert.Equal(t, "1042", kept.InvoiceNumber)
	assert.Len(t, kept.Items, 2)
}
