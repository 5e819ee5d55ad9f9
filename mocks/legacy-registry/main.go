// Command legacy-registry is a development stand-in for the federation's
// membership registry. It serves a fixed candidate set over the same wire
// contract the real registry exposes.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type candidate struct {
	MemberCode     string `json:"member_code"`
	DisplayName    string `json:"display_name"`
	TaxID          string `json:"tax_id"`
	MemberTypeCode string `json:"member_type_code"`
}

var members = []candidate{
	{MemberCode: "WM-1001", DisplayName: "Acme Fabrication GmbH", TaxID: "DE811234567", MemberTypeCode: "MT01"},
	{MemberCode: "WM-1002", DisplayName: "Beta Logistics AG", TaxID: "DE819876543", MemberTypeCode: "MT02"},
	{MemberCode: "WM-1003", DisplayName: "Gamma Foundry KG", TaxID: "DE813335557", MemberTypeCode: "MT01"},
	{MemberCode: "WM-1004", DisplayName: "Delta Tooling GmbH", TaxID: "DE814446668", MemberTypeCode: "MT03"},
}

func main() {
	addr := ":9081"
	if v := os.Getenv("ADDR"); v != "" {
		addr = v
	}

	http.HandleFunc("/members/search", func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(r.URL.Query().Get("q"))
		var matched []candidate
		for _, m := range members {
			if strings.Contains(strings.ToLower(m.DisplayName), q) ||
				strings.Contains(strings.ToLower(m.MemberCode), q) {
				matched = append(matched, m)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": matched})
	})

	log.Printf("mock legacy registry listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
