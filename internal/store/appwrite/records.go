package appwrite

import (
	"context"
	"fmt"
	"net/url"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

type document struct {
	ID          string `json:"$id"`
	AmountCents int64  `json:"amountCents"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
	OwnerID     string `json:"ownerId"`
	ReceiptID   string `json:"receiptId,omitempty"`
}

type documentList struct {
	Total     int        `json:"total"`
	Documents []document `json:"documents"`
}

func (c *Client) documentsPath() string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents",
		pathEscape(c.cfg.DatabaseID), pathEscape(c.cfg.CollectionID))
}

// toRecord converts a remote document. Malformed fields degrade
// instead of aborting the whole listing: a bad date becomes the zero
// date and a bad category is kept verbatim for Validate to reject on
// the write path.
func (c *Client) toRecord(doc document) core.ExpenseRecord {
	date, err := core.ParseDate(doc.Date)
	if err != nil {
		c.logger.Warn("skipping malformed document date",
			"record_id", doc.ID, "date", doc.Date)
		date = core.Date{}
	}
	return core.ExpenseRecord{
		ID:          doc.ID,
		Amount:      core.Money{Cents: doc.AmountCents},
		Category:    core.Category(doc.Category),
		Description: doc.Description,
		Date:        date,
		OwnerID:     doc.OwnerID,
		ReceiptID:   doc.ReceiptID,
	}
}

// CreateRecord implements store.RecordStore
func (c *Client) CreateRecord(ctx context.Context, rec core.ExpenseRecord) (core.ExpenseRecord, error) {
	const op = "records.create"
	if err := rec.Validate(); err != nil {
		return core.ExpenseRecord{}, store.NewError(store.KindInvalid, op, err)
	}
	payload := struct {
		DocumentID string   `json:"documentId"`
		Data       document `json:"data"`
	}{
		DocumentID: newID(),
		Data: document{
			AmountCents: rec.Amount.Cents,
			Category:    rec.Category.String(),
			Description: rec.Description,
			Date:        rec.Date.String(),
			OwnerID:     rec.OwnerID,
			ReceiptID:   rec.ReceiptID,
		},
	}
	var created document
	if err := c.doJSON(ctx, op, "POST", c.documentsPath(), payload, &created); err != nil {
		return core.ExpenseRecord{}, err
	}
	return c.toRecord(created), nil
}

// ListRecords implements store.RecordStore
func (c *Client) ListRecords(ctx context.Context, ownerID string) ([]core.ExpenseRecord, error) {
	const op = "records.list"
	q := url.Values{}
	q.Add("queries[]", queryEqual("ownerId", ownerID))

	var list documentList
	if err := c.do(ctx, op, "GET", c.documentsPath()+"?"+q.Encode(), nil, "", &list); err != nil {
		return nil, err
	}
	out := make([]core.ExpenseRecord, 0, len(list.Documents))
	for _, doc := range list.Documents {
		out = append(out, c.toRecord(doc))
	}
	return out, nil
}

// DeleteRecord implements store.RecordStore. The remote API deletes by
// document ID alone, so the document is fetched first and the delete
// refused when it belongs to another owner.
func (c *Client) DeleteRecord(ctx context.Context, ownerID, id string) error {
	const op = "records.delete"
	path := c.documentsPath() + "/" + pathEscape(id)

	var doc document
	if err := c.do(ctx, op, "GET", path, nil, "", &doc); err != nil {
		return err
	}
	if doc.OwnerID != ownerID {
		return store.Errorf(store.KindNotFound, op, "record %s not found", id)
	}
	return c.do(ctx, op, "DELETE", path, nil, "", nil)
}
