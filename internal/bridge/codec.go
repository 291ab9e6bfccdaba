package bridge

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"
)

// cborMode uses Core Deterministic Encoding so identical snapshots produce
// identical bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bridge: CBOR encoder initialization failed: " + err.Error())
	}
}

// wantsCBOR reports whether the Accept header lists application/cbor.
func wantsCBOR(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == contentTypeCBOR {
			return true
		}
	}
	return false
}

// writeNegotiated encodes payload as CBOR when the client asked for it and as
// JSON otherwise.
func writeNegotiated(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if !wantsCBOR(r) {
		writeJSON(w, status, payload)
		return
	}
	data, err := cborMode.Marshal(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "encode failed", Kind: "internal"})
		return
	}
	w.Header().Set("Content-Type", contentTypeCBOR)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
