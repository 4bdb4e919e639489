package documents

import "soko_backend/internal/models"

// LegacyCandidates lists the relative paths where a pre-migration file
// may live, most specific first. The stored path is tried before the
// conventional layouts older upload code used.
func LegacyCandidates(sellerID string, doc models.Document) []string {
	var candidates []string
	if doc.Path != "" {
		candidates = append(candidates, doc.Path)
	}
	if doc.Filename != "" {
		candidates = append(candidates,
			"sellers/"+sellerID+"/"+doc.Filename,
			"documents/"+sellerID+"/"+doc.Filename,
			doc.Filename,
		)
	}
	return candidates
}
