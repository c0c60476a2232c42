package llm

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const maxSnippet = 6000

// snippet caps text at maxSnippet bytes without splitting a rune.
func snippet(text string) string {
	if len(text) <= maxSnippet {
		return text
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func buildTypeMatchPrompt(text, label string) string {
	return fmt.Sprintf(`Analyze the following text and determine if it is a '%s'.
Respond with only 'yes' or 'no'.

Text:
%s`, label, snippet(text))
}

func buildRecencyPrompt(text string, today time.Time, windowMonths int) string {
	return fmt.Sprintf(`Today's date is %s.
Analyze the following text and determine whether the document was issued within the last %d months.
Respond with only 'recent', 'not recent' or 'unknown' if no date can be found.

Text:
%s`, today.Format("2006-01-02"), windowMonths, snippet(text))
}

func buildClarityPrompt(text string) string {
	return fmt.Sprintf(`Rate how clear and legible the following extracted text is on a scale from 0.0 (unreadable) to 1.0 (perfectly clear).
Respond with only the number in the format x.xx.

Text:
%s`, snippet(text))
}

func buildMedicalRelevancePrompt(text, label string) string {
	return fmt.Sprintf(`Does the following text contain medical information that is relevant for a '%s'?
Respond with only 'yes' or 'no'.

Text:
%s`, label, snippet(text))
}

func buildFieldsPrompt(text string) string {
	return fmt.Sprintf(`Extract between 5 and 10 key facts from the following medical document.
Return them as 'Label: Value' pairs separated by commas, without numbering, markdown or any other text.

Text:
%s`, snippet(text))
}

func buildRejectionPrompt(reasons string) string {
	return fmt.Sprintf(`A patient uploaded a document that was rejected because %s.
Write one short, polite sentence that tells the patient why the document was rejected and what to do next.
Respond with only that sentence.`, reasons)
}

const reportInstruction = `You are preparing a summary report for a treating physician from the patient's documents below.
Write the report in Markdown with exactly these sections in this order:
## Medical History
## Findings
## Procedures
## Follow-up
## Diagnoses
## Services
## References
Every statement must cite its source document with the reference marker, for example [(1)].
If a section has no supporting information write "Not documented".
List every reference in the References section as "(n) file name: link".
Do not invent information that is not present in the documents.`

func buildReportPrompt(corpus string) string {
	return reportInstruction + "\n\nDocuments:\n\n" + corpus
}

// NoReportContext is used when no report has been compiled yet.
const NoReportContext = "No information available"

func buildAnswerPrompt(question, report string) string {
	return fmt.Sprintf(`You are a helpful assistant answering questions about a patient's medical documents.
Answer only from the report below. If the report does not contain the answer, say so directly.

Report:
%s

Question:
%s`, report, question)
}
