// Command document-store is a development stand-in for the blob store.
// Uploads are discarded; the response carries a synthetic reference.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
)

func main() {
	addr := ":9082"
	if v := os.Getenv("ADDR"); v != "" {
		addr = v
	}

	http.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h := sha256.New()
		size, err := io.Copy(h, r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		digest := hex.EncodeToString(h.Sum(nil))[:16]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"url":          "blob://documents/" + digest,
			"name":         r.URL.Query().Get("name"),
			"size":         size,
			"content_type": r.Header.Get("Content-Type"),
		})
	})

	log.Printf("mock document store listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
