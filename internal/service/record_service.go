package service

import (
	"context"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
	"github.com/prn-tf/monedero/internal/storage"
)

// RecordService adds receipts and period summaries to the record contract.
type RecordService struct {
	*ResourceService[*domain.Record]

	records  repository.RecordRepository
	receipts storage.ReceiptStore
}

// NewRecordService creates a RecordService. receipts may be nil, in which
// case receipt operations fail with ErrReceiptsDisabled.
func NewRecordService(base *ResourceService[*domain.Record], records repository.RecordRepository, receipts storage.ReceiptStore) *RecordService {
	return &RecordService{
		ResourceService: base,
		records:         records,
		receipts:        receipts,
	}
}

// ReceiptUpload is the presigned upload issued for a record's receipt.
type ReceiptUpload struct {
	Key    string                `json:"receipt_key"`
	Upload *storage.PresignedURL `json:"upload"`
}

// UploadReceipt assigns a fresh receipt key to the caller's record id and
// returns a URL the client uploads the file to. A previous receipt is
// replaced.
func (s *RecordService) UploadReceipt(ctx context.Context, ownerID, id int64, contentType string) (*ReceiptUpload, error) {
	if s.receipts == nil {
		return nil, ErrReceiptsDisabled
	}
	if err := storage.ValidateContentType(contentType); err != nil {
		return nil, domain.NewValidationError("content_type", "must be one of: image/jpeg, image/png, image/webp, application/pdf")
	}
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}

	key := storage.ReceiptKey(ownerID, id)
	upload, err := s.receipts.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, s.internal(err, "failed to presign receipt upload for", ownerID, id)
	}

	updated, err := s.records.SetReceiptKey(ctx, ownerID, id, key)
	if err != nil {
		return nil, s.internal(err, "failed to store receipt key of", ownerID, id)
	}
	if !updated {
		return nil, domain.ErrNotFound
	}

	s.logger.Info().Int64("user_id", ownerID).Int64("id", id).Msg("receipt upload issued")
	return &ReceiptUpload{Key: key, Upload: upload}, nil
}

// DownloadReceipt returns a URL to fetch the receipt of the caller's record id.
func (s *RecordService) DownloadReceipt(ctx context.Context, ownerID, id int64) (*storage.PresignedURL, error) {
	if s.receipts == nil {
		return nil, ErrReceiptsDisabled
	}

	record, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if record.ReceiptKey == "" {
		return nil, ErrNoReceipt
	}

	download, err := s.receipts.PresignDownload(ctx, record.ReceiptKey)
	if err != nil {
		return nil, s.internal(err, "failed to presign receipt download for", ownerID, id)
	}
	return download, nil
}

// Summary is the income and expense total over a date range.
type Summary struct {
	From    domain.Date  `json:"from"`
	To      domain.Date  `json:"to"`
	Income  domain.Money `json:"income"`
	Expense domain.Money `json:"expense"`
	Net     domain.Money `json:"net"`
}

// Summarize totals the caller's records in [from, to). Zero dates leave
// that side of the range open.
func (s *RecordService) Summarize(ctx context.Context, ownerID int64, from, to domain.Date) (*Summary, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, domain.NewValidationError("to", "must be after from")
	}

	filter := repository.SumFilter{From: from, To: to}
	income, expense, err := sumBoth(ctx, s.records, ownerID, filter)
	if err != nil {
		return nil, s.internal(err, "failed to summarize", ownerID, 0)
	}

	return &Summary{
		From:    from,
		To:      to,
		Income:  income,
		Expense: expense,
		Net:     income - expense,
	}, nil
}

func sumBoth(ctx context.Context, records repository.RecordRepository, ownerID int64, filter repository.SumFilter) (income, expense domain.Money, err error) {
	filter.Kind = domain.KindIncome
	if income, err = records.SumAmounts(ctx, ownerID, filter); err != nil {
		return 0, 0, err
	}
	filter.Kind = domain.KindExpense
	if expense, err = records.SumAmounts(ctx, ownerID, filter); err != nil {
		return 0, 0, err
	}
	return income, expense, nil
}
