package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/preenhq/payments-service/internal/models"
)

// In-memory repository fakes. They mirror the SQL repositories' semantics
// closely enough for service-level tests: conflict-guarded inserts, soft
// no-rows results (nil, nil) and mutate-based optimistic updates.

var okTag = pgconn.CommandTag("UPDATE 1")

type fakeLinkRepo struct {
	links map[uuid.UUID]*models.PaymentLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[uuid.UUID]*models.PaymentLink)}
}

func (r *fakeLinkRepo) Create(_ context.Context, link *models.PaymentLink) error {
	cp := *link
	r.links[link.ID] = &cp
	return nil
}

func (r *fakeLinkRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PaymentLink, error) {
	if l, ok := r.links[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeLinkRepo) GetBySlug(_ context.Context, slug string) (*models.PaymentLink, error) {
	for _, l := range r.links {
		if l.Slug == slug {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) ListByOwner(_ context.Context, ownerUserID uuid.UUID) ([]*models.PaymentLink, error) {
	var out []*models.PaymentLink
	for _, l := range r.links {
		if l.OwnerUserID == ownerUserID && l.Status != models.LinkStatusDeleted {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.LinkStatusType) error {
	if l, ok := r.links[id]; ok {
		l.Status = status
	}
	return nil
}

func (r *fakeLinkRepo) ExpireActiveOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, l := range r.links {
		if l.Status == models.LinkStatusActive && l.ExpiresAt != nil && !l.ExpiresAt.After(cutoff) {
			l.Status = models.LinkStatusExpired
			n++
		}
	}
	return n, nil
}

type fakeTxnRepo struct {
	txns map[uuid.UUID]*models.PaymentTransaction
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{txns: make(map[uuid.UUID]*models.PaymentTransaction)}
}

func (r *fakeTxnRepo) Create(_ context.Context, txn *models.PaymentTransaction) error {
	for _, t := range r.txns {
		if t.Processor == txn.Processor &&
			t.ProcessorPaymentID != nil && txn.ProcessorPaymentID != nil &&
			*t.ProcessorPaymentID == *txn.ProcessorPaymentID {
			return nil // conflict guard: insert is a no-op
		}
	}
	cp := *txn
	cp.RowVersion = 1
	r.txns[txn.ID] = &cp
	return nil
}

func (r *fakeTxnRepo) GetByID(_ context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	if t, ok := r.txns[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeTxnRepo) GetByProcessorPaymentID(_ context.Context, processor models.ProcessorType, processorPaymentID string) (*models.PaymentTransaction, error) {
	for _, t := range r.txns {
		if t.Processor == processor && t.ProcessorPaymentID != nil && *t.ProcessorPaymentID == processorPaymentID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTxnRepo) ListByLink(_ context.Context, linkID uuid.UUID) ([]*models.PaymentTransaction, error) {
	var out []*models.PaymentTransaction
	for _, t := range r.txns {
		if t.PaymentLinkID == linkID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTxnRepo) ListByStatus(_ context.Context, status models.TransactionStatusType) ([]*models.PaymentTransaction, error) {
	var out []*models.PaymentTransaction
	for _, t := range r.txns {
		if t.Status == status {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeTxnRepo) UpdateIfVersion(_ context.Context, txn *models.PaymentTransaction, expectedVersion int64) (pgconn.CommandTag, error) {
	stored, ok := r.txns[txn.ID]
	if !ok || stored.RowVersion != expectedVersion {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *txn
	cp.RowVersion = expectedVersion + 1
	r.txns[txn.ID] = &cp
	return okTag, nil
}

func (r *fakeTxnRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.PaymentTransaction) error) error {
	t, ok := r.txns[id]
	if !ok {
		return nil
	}
	cp := *t
	if err := mutate(&cp); err != nil {
		return err
	}
	cp.RowVersion = t.RowVersion + 1
	r.txns[id] = &cp
	return nil
}

func (r *fakeTxnRepo) ExpirePendingOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, t := range r.txns {
		if t.Status == models.TransactionStatusPending && !t.CreatedAt.After(cutoff) {
			t.Status = models.TransactionStatusExpired
			n++
		}
	}
	return n, nil
}

type fakeRecipientRepo struct {
	byLink map[uuid.UUID][]*models.SplitRecipient
}

func newFakeRecipientRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{byLink: make(map[uuid.UUID][]*models.SplitRecipient)}
}

func (r *fakeRecipientRepo) ReplaceForLink(_ context.Context, linkID uuid.UUID, recipients []*models.SplitRecipient) error {
	stored := make([]*models.SplitRecipient, 0, len(recipients))
	for i, rec := range recipients {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		rec.PaymentLinkID = linkID
		rec.Position = i
		cp := *rec
		stored = append(stored, &cp)
	}
	r.byLink[linkID] = stored
	return nil
}

func (r *fakeRecipientRepo) ListByLink(_ context.Context, linkID uuid.UUID) ([]*models.SplitRecipient, error) {
	var out []*models.SplitRecipient
	for _, rec := range r.byLink[linkID] {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeRecipientRepo) DeleteForLink(_ context.Context, linkID uuid.UUID) error {
	delete(r.byLink, linkID)
	return nil
}

type disbursementKey struct {
	txnID    uuid.UUID
	position int
}

type fakeDisbursementRepo struct {
	rows   map[uuid.UUID]*models.SplitDisbursement
	byTxn  map[disbursementKey]uuid.UUID
	writes int
}

func newFakeDisbursementRepo() *fakeDisbursementRepo {
	return &fakeDisbursementRepo{
		rows:  make(map[uuid.UUID]*models.SplitDisbursement),
		byTxn: make(map[disbursementKey]uuid.UUID),
	}
}

func (r *fakeDisbursementRepo) CreateIfNotExists(_ context.Context, d *models.SplitDisbursement) error {
	key := disbursementKey{txnID: d.TransactionID, position: d.Position}
	if _, exists := r.byTxn[key]; exists {
		return nil
	}
	cp := *d
	cp.RowVersion = 1
	r.rows[d.ID] = &cp
	r.byTxn[key] = d.ID
	r.writes++
	return nil
}

func (r *fakeDisbursementRepo) GetByID(_ context.Context, id uuid.UUID) (*models.SplitDisbursement, error) {
	if d, ok := r.rows[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeDisbursementRepo) ListByTransaction(_ context.Context, transactionID uuid.UUID) ([]*models.SplitDisbursement, error) {
	var out []*models.SplitDisbursement
	for _, d := range r.rows {
		if d.TransactionID == transactionID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDisbursementRepo) ListPendingByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*models.SplitDisbursement, error) {
	all, _ := r.ListByTransaction(ctx, transactionID)
	var out []*models.SplitDisbursement
	for _, d := range all {
		if d.DistributionStatus == models.DistributionStatusPending {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDisbursementRepo) UpdateIfVersion(_ context.Context, d *models.SplitDisbursement, expectedVersion int64) (pgconn.CommandTag, error) {
	stored, ok := r.rows[d.ID]
	if !ok || stored.RowVersion != expectedVersion {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	cp := *d
	cp.RowVersion = expectedVersion + 1
	r.rows[d.ID] = &cp
	return okTag, nil
}

func (r *fakeDisbursementRepo) UpdateWithRetry(_ context.Context, id uuid.UUID, mutate func(*models.SplitDisbursement) error) error {
	d, ok := r.rows[id]
	if !ok {
		return nil
	}
	cp := *d
	if err := mutate(&cp); err != nil {
		return err
	}
	cp.RowVersion = d.RowVersion + 1
	r.rows[id] = &cp
	return nil
}

type fakeNotifier struct {
	failureEmails []string
	receiptEmails []string
}

func (n *fakeNotifier) NotifyDisbursementFailed(ownerEmail string, _ *models.SplitDisbursement, _, _ string) {
	n.failureEmails = append(n.failureEmails, ownerEmail)
}

func (n *fakeNotifier) SendPaymentReceipt(payerEmail string, _ *models.PaymentTransaction, _ string) {
	n.receiptEmails = append(n.receiptEmails, payerEmail)
}
