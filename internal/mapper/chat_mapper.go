package mapper

import (
	"legal-assist-be/internal/dto"
	"legal-assist-be/internal/entity"
	"legal-assist-be/pkg/citation"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ConversationToListItem(c *entity.Conversation) *dto.ConversationListItem {
	if c == nil {
		return nil
	}
	return &dto.ConversationListItem{
		Id:        c.Id,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// MessageToHistoryDTO renders a stored message for the UI: the completed
// text is split into text/citation segments here, never while streaming.
func (m *ChatMapper) MessageToHistoryDTO(msg *entity.ChatMessage) *dto.ChatHistoryMessage {
	if msg == nil {
		return nil
	}

	citationCount := 0
	if msg.Status == entity.MessageStatusCompleted {
		citationCount = len(msg.Citations)
	}

	return &dto.ChatHistoryMessage{
		Id:               msg.Id,
		Role:             msg.Role,
		Content:          msg.Content,
		Status:           msg.Status,
		Segments:         citation.Parse(msg.Content, citationCount),
		Citations:        m.CitationsToDTO(msg.Citations),
		Confidence:       m.ConfidenceToDTO(msg.Confidence),
		Validation:       m.ValidationToDTO(msg.Validation),
		Refused:          msg.Validation.Refused(),
		ProcessingTimeMs: msg.ProcessingTimeMs,
		CreatedAt:        msg.CreatedAt,
	}
}

func (m *ChatMapper) CitationsToDTO(citations []entity.Citation) []dto.CitationDTO {
	if len(citations) == 0 {
		return nil
	}
	out := make([]dto.CitationDTO, 0, len(citations))
	for _, c := range citations {
		out = append(out, dto.CitationDTO{
			SourceId:     c.SourceId,
			Title:        c.Title,
			Excerpt:      c.Excerpt,
			Relevance:    c.Relevance,
			DocumentType: c.DocumentType,
		})
	}
	return out
}

func (m *ChatMapper) ConfidenceToDTO(c *entity.ConfidenceScore) *dto.ConfidenceDTO {
	if c == nil {
		return nil
	}
	return &dto.ConfidenceDTO{
		Overall:  c.Overall,
		TopScore: c.TopScore,
		AvgScore: c.AvgScore,
	}
}

func (m *ChatMapper) ValidationToDTO(v *entity.ValidationResult) *dto.ValidationDTO {
	if v == nil {
		return nil
	}
	return &dto.ValidationDTO{
		IsValid:           v.IsValid,
		HallucinationRisk: string(v.HallucinationRisk),
		CitationCoverage:  v.CitationCoverage,
		GroundingScore:    v.GroundingScore,
		Warnings:          v.Warnings,
		UngroundedClaims:  v.UngroundedClaims,
	}
}
