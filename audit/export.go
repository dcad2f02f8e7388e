// Package audit produces regulatory export bundles: the full event
// sequence of a consultation together with its chain-verification result,
// as machine-readable JSON and as a human-readable PDF report.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"
	"mediscribe/integrity"

	"github.com/jung-kurt/gofpdf"
)

// Verification is the chain check outcome embedded in a bundle. A broken
// chain does not block an export; the inspector needs to see it.
type Verification struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Bundle is the exported evidence for one consultation.
type Bundle struct {
	ConsultationID domain.ConsultationID `json:"consultation_id"`
	GeneratedAt    time.Time             `json:"generated_at"`
	Verification   Verification          `json:"verification"`
	Events         []event.Event         `json:"events"`
	// Checksum digests the serialized event sequence so a bundle can be
	// checked for transport corruption independently of the chain.
	Checksum string `json:"checksum"`
}

type Exporter struct {
	store    contract.EventStore
	verifier contract.ChainVerifier
	clock    func() time.Time
}

func NewExporter(store contract.EventStore, verifier contract.ChainVerifier) *Exporter {
	return &Exporter{store: store, verifier: verifier, clock: time.Now}
}

// WithClock overrides the bundle timestamp source for testing.
func (e *Exporter) WithClock(clock func() time.Time) *Exporter {
	e.clock = clock
	return e
}

// Export assembles the verified bundle for one consultation.
func (e *Exporter) Export(ctx context.Context, cid domain.ConsultationID) (Bundle, error) {
	events, err := e.store.Read(ctx, cid)
	if err != nil {
		return Bundle{}, err
	}
	if len(events) == 0 {
		return Bundle{}, fmt.Errorf("%w: %s", apperrors.ErrConsultationNotFound, cid)
	}

	verification := Verification{OK: true}
	if err := e.verifier.Verify(ctx, cid); err != nil {
		verification = Verification{OK: false, Detail: err.Error()}
	}

	raw, err := json.Marshal(events)
	if err != nil {
		return Bundle{}, fmt.Errorf("marshal events for %s: %w", cid, err)
	}

	return Bundle{
		ConsultationID: cid,
		GeneratedAt:    e.clock().UTC(),
		Verification:   verification,
		Events:         events,
		Checksum:       integrity.Checksum(raw),
	}, nil
}

// ExportPDF renders the bundle as a printable report: verdict, then one
// row per event with its position in the chain.
func (e *Exporter) ExportPDF(ctx context.Context, cid domain.ConsultationID) ([]byte, error) {
	bundle, err := e.Export(ctx, cid)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Consultation audit %s", cid), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Audit export - consultation %s", cid))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated at: %s", bundle.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Bundle checksum: %s", bundle.Checksum))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	if bundle.Verification.OK {
		pdf.Cell(0, 7, fmt.Sprintf("Chain verification: OK (%d events)", len(bundle.Events)))
	} else {
		pdf.Cell(0, 7, "Chain verification: FAILED")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 5, bundle.Verification.Detail, "", "L", false)
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(12, 6, "Seq", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Actor", "1", 0, "L", false, 0, "")
	pdf.CellFormat(44, 6, "Timestamp", "1", 0, "L", false, 0, "")
	pdf.CellFormat(44, 6, "Event hash", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, evt := range bundle.Events {
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", evt.Sequence), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, string(evt.Type), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, evt.ActorID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(44, 6, evt.At.Format(time.RFC3339), "1", 0, "L", false, 0, "")
		pdf.CellFormat(44, 6, shorten(evt.Hash), "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render audit pdf for %s: %w", cid, err)
	}
	return buf.Bytes(), nil
}

func shorten(hash string) string {
	if len(hash) <= 24 {
		return hash
	}
	return hash[:24] + "..."
}
