package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/rkalenko/qcdash/internal/models"
)

// rowHashLen truncates digests to fit the indexed key columns. SHA-256 at
// 32 hex chars keeps more than enough collision resistance for an
// existence check.
const rowHashLen = 32

// IssueRowHash fingerprints an entire normalized issue row. Keys are sorted
// before serialization so column order in the source never changes the hash.
func IssueRowHash(row Row) string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(row[key])
		b.WriteByte('\n')
	}

	return digest(b.String())
}

// ReturnRowHash fingerprints the identity fields of a return row plus its
// reason breakdown. Unrelated column changes leave the hash stable; any
// reason or count edit produces a new hash and thus a new logical row.
func ReturnRowHash(date, clientName, clientID, ccAbbr string, reasons []models.ReturnReason) string {
	var b strings.Builder
	b.WriteString(date)
	b.WriteByte('|')
	b.WriteString(clientName)
	b.WriteByte('|')
	b.WriteString(clientID)
	b.WriteByte('|')
	b.WriteString(ccAbbr)
	for _, reason := range reasons {
		b.WriteByte('|')
		fmt.Fprintf(&b, "%s=%d", reason.Reason, reason.Count)
	}

	return digest(b.String())
}

func digest(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:rowHashLen]
}
