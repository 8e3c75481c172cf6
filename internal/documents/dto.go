package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	DocumentName     string    `json:"documentName"`
	OriginalFileName string    `json:"originalFileName"`
	FileType         string    `json:"fileType"`
	TargetLanguage   string    `json:"targetLanguage"`
	OriginalText     string    `json:"originalText"`
	TranslatedText   string    `json:"translatedText"`
	ExtractionOK     bool      `json:"extractionOk"`
	TranslationOK    bool      `json:"translationOk"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type listResponse struct {
	Documents  []DocumentResponse `json:"documents"`
	Pagination paginationResponse `json:"pagination"`
}

type translateTextRequest struct {
	DocumentName   string `json:"documentName"`
	TargetLanguage string `json:"targetLanguage"`
	Text           string `json:"text"`
}

type updateRequest struct {
	DocumentName   *string `json:"documentName"`
	TranslatedText *string `json:"translatedText"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:               doc.ID,
		UserID:           doc.UserID,
		DocumentName:     doc.DocumentName,
		OriginalFileName: doc.OriginalFileName,
		FileType:         doc.FileType,
		TargetLanguage:   doc.TargetLanguage,
		OriginalText:     doc.OriginalText,
		TranslatedText:   doc.TranslatedText,
		ExtractionOK:     doc.ExtractionOK,
		TranslationOK:    doc.TranslationOK,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func toListResponse(p Page) listResponse {
	docs := make([]DocumentResponse, 0, len(p.Documents))
	for _, doc := range p.Documents {
		docs = append(docs, toResponse(doc))
	}
	return listResponse{
		Documents: docs,
		Pagination: paginationResponse{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
		},
	}
}
