package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes the payload with a content-derived ETag and
// short-circuits to 304 when the client already holds the same bytes.
// List responses go through here so polling clients pay for changes only.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	ctx.Header("ETag", etag)

	if clientHolds(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

// clientHolds checks the If-None-Match header against the current tag,
// tolerating multi-value headers, the * wildcard and weak validators.
func clientHolds(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := stripWeak(etag)
	for _, candidate := range strings.Split(header, ",") {
		if stripWeak(candidate) == want {
			return true
		}
	}

	return false
}

func stripWeak(tag string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "W/"))
}
