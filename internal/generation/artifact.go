package generation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/phrazzld/reportd/internal/domain"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ArtifactName builds a filesystem-safe, timestamped report file name.
func ArtifactName(params domain.Params, at time.Time) string {
	base := strings.Join([]string{params.Market, params.Code, params.Company}, "_")
	base = strings.Trim(unsafeFileChars.ReplaceAllString(base, "-"), "-_")
	return fmt.Sprintf("%s_%s.md", base, at.UTC().Format("20060102T150405.000000000"))
}
