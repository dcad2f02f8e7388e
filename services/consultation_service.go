//go:generate go run go.uber.org/mock/mockgen -source=consultation_service.go -destination=../mocks/mock_consultation_service.go -package=mocks
package services

import (
	"context"

	"mediscribe/audit"
	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	"mediscribe/infrastructure/storage"
	"mediscribe/runtime"
)

// IConsultationService is the surface the external API layer programs
// against: the five intents plus the read-only projection, verification,
// export and search operations.
type IConsultationService interface {
	Start(ctx context.Context, intent domain.StartConsultation) (event.Event, error)
	AttachAudio(ctx context.Context, intent domain.AttachAudio) (event.Event, error)
	UpdateSection(ctx context.Context, intent domain.UpdateSection) (event.Event, error)
	AmendSection(ctx context.Context, intent domain.AmendSection) (event.Event, error)
	Finalize(ctx context.Context, intent domain.Finalize) (event.Event, error)

	Note(ctx context.Context, cid domain.ConsultationID) (domain.ClinicalNote, error)
	Verify(ctx context.Context, cid domain.ConsultationID) error
	Export(ctx context.Context, cid domain.ConsultationID) (audit.Bundle, error)
	ExportPDF(ctx context.Context, cid domain.ConsultationID) ([]byte, error)
	SearchTranscripts(ctx context.Context, query string, limit int) ([]storage.SearchHit, error)
}

type ConsultationService struct {
	coordinator *runtime.Coordinator
	projector   contract.Projector
	verifier    contract.ChainVerifier
	exporter    *audit.Exporter
	search      storage.ISearchRepository
}

func NewConsultationService(
	coordinator *runtime.Coordinator,
	projector contract.Projector,
	verifier contract.ChainVerifier,
	exporter *audit.Exporter,
	search storage.ISearchRepository,
) *ConsultationService {
	return &ConsultationService{
		coordinator: coordinator,
		projector:   projector,
		verifier:    verifier,
		exporter:    exporter,
		search:      search,
	}
}

var _ IConsultationService = (*ConsultationService)(nil)

func (s *ConsultationService) Start(ctx context.Context, intent domain.StartConsultation) (event.Event, error) {
	return s.coordinator.Start(ctx, intent)
}

func (s *ConsultationService) AttachAudio(ctx context.Context, intent domain.AttachAudio) (event.Event, error) {
	return s.coordinator.AttachAudio(ctx, intent)
}

func (s *ConsultationService) UpdateSection(ctx context.Context, intent domain.UpdateSection) (event.Event, error) {
	return s.coordinator.UpdateSection(ctx, intent)
}

func (s *ConsultationService) AmendSection(ctx context.Context, intent domain.AmendSection) (event.Event, error) {
	return s.coordinator.AmendSection(ctx, intent)
}

func (s *ConsultationService) Finalize(ctx context.Context, intent domain.Finalize) (event.Event, error) {
	return s.coordinator.Finalize(ctx, intent)
}

func (s *ConsultationService) Note(ctx context.Context, cid domain.ConsultationID) (domain.ClinicalNote, error) {
	return s.projector.Project(ctx, cid)
}

func (s *ConsultationService) Verify(ctx context.Context, cid domain.ConsultationID) error {
	return s.verifier.Verify(ctx, cid)
}

func (s *ConsultationService) Export(ctx context.Context, cid domain.ConsultationID) (audit.Bundle, error) {
	return s.exporter.Export(ctx, cid)
}

func (s *ConsultationService) ExportPDF(ctx context.Context, cid domain.ConsultationID) ([]byte, error) {
	return s.exporter.ExportPDF(ctx, cid)
}

func (s *ConsultationService) SearchTranscripts(ctx context.Context, query string, limit int) ([]storage.SearchHit, error) {
	return s.search.Search(ctx, query, limit)
}
