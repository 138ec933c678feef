package flow

import "strings"

// Category is a user-facing bucket for a raw backend error string.
type Category string

const (
	CategoryUnreadable   Category = "document_unreadable"
	CategoryBlur         Category = "blur"
	CategoryGlare        Category = "glare"
	CategoryNotVisible   Category = "document_not_visible"
	CategoryFile         Category = "file_problem"
	CategoryConnectivity Category = "connectivity"
	CategoryFaceMismatch Category = "face_mismatch"
	CategoryRetryLimit   Category = "retry_limit"
	CategoryProcessing   Category = "processing_issue"
)

// Notice pairs a category with the message shown next to the step that can
// be retried. It never advances or changes the step by itself.
type Notice struct {
	Category Category
	Message  string
}

// classifier rules are ordered; the first substring match wins. Matching is
// case-insensitive against the raw backend error text.
type rule struct {
	needles []string
	notice  Notice
}

var rules = []rule{
	{[]string{"ocr", "extract"}, Notice{CategoryUnreadable, "We couldn't read your document. Retake the photo with better lighting."}},
	{[]string{"blur"}, Notice{CategoryBlur, "The image is blurry. Hold your device steady and try again."}},
	{[]string{"glare", "reflection"}, Notice{CategoryGlare, "There's too much glare. Move away from direct light and try again."}},
	{[]string{"no document", "no_document", "not detected"}, Notice{CategoryNotVisible, "We couldn't see a document. Make sure it fills the frame."}},
	{[]string{"file", "upload", "size"}, Notice{CategoryFile, "There was a problem with that file. Try a different photo."}},
	{[]string{"network", "timeout", "connection"}, Notice{CategoryConnectivity, "Connection problem. Check your network and try again."}},
}

// faceMatch requires both words so a generic "match" error doesn't land here.
var faceMatchNotice = Notice{CategoryFaceMismatch, "The selfie didn't match the document photo. Try again."}

var genericNotice = Notice{CategoryProcessing, "Something went wrong while processing. Please try again."}

var retryLimitNotice = Notice{CategoryRetryLimit, "You've reached the retry limit for this verification. Contact the company that requested it."}

// Classify maps a raw backend error string to its display notice.
func Classify(raw string) Notice {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(lower, n) {
				return r.notice
			}
		}
	}
	if strings.Contains(lower, "face") && strings.Contains(lower, "match") {
		return faceMatchNotice
	}
	return genericNotice
}
