package ingest

import (
	"github.com/unidoc/unioffice/common/license"
)

// ConfigureLicense registers the unioffice metered key. An empty key leaves
// unioffice unlicensed, in which case .docx uploads may be rejected.
func ConfigureLicense(key string) error {
	if key == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}
