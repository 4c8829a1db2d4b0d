package domain

import "fmt"

// Raw processing status strings. The pipeline writes them, the progress
// normalizer parses them; keep the two sides in sync through these
// constructors only.
const (
	StatusPending          = "pending"
	StatusCompleted        = "completed"
	StatusFailed           = "failed"
	StatusGeneratingRAG    = "generating_rag_responses"
	StatusPreparingPDFFill = "preparing_pdf_fill"
)

// DocStatus marks the start of evidence scanning for one document type.
func DocStatus(doctype string) string {
	return fmt.Sprintf("processing_%s", doctype)
}

// DocPageStatus marks page m of n of a document being analyzed.
func DocPageStatus(doctype string, page, total int) string {
	return fmt.Sprintf("processing_%s_page_%d_of_%d", doctype, page, total)
}

// DocAnalysisStatus marks the whole-document criteria evaluation.
func DocAnalysisStatus(doctype string) string {
	return fmt.Sprintf("processing_%s_analysis", doctype)
}

// RAGPageStatus marks petition section m of n being generated.
func RAGPageStatus(page, total int) string {
	return fmt.Sprintf("generating_rag_page_%d_of_%d", page, total)
}

// PDFPageStatus marks form page m of n being filled.
func PDFPageStatus(page, total int) string {
	return fmt.Sprintf("filling_pdf_page_%d_of_%d", page, total)
}

// PDFFillCompletedStatus marks the end of the fill stage.
func PDFFillCompletedStatus(pages int) string {
	return fmt.Sprintf("completed_pdf_fill_%d_pages", pages)
}
