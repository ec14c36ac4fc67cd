// Package iana parses the IANA Root Zone Database text format into a
// read-only index of top-level domains.
package iana

import (
	"bufio"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"time"

	derrors "github.com/xbojch/domainparser/errors"
	"github.com/xbojch/domainparser/idn"
)

// headerLayout is the date format of the root zone header comment, e.g.
// "Mon Sep  4 07:07:01 2023 UTC".
const headerLayout = "Mon Jan _2 15:04:05 2006 MST"

var headerPattern = regexp.MustCompile(`^# Version (\d+), Last Updated (.+)$`)

// RootZoneIndex is an ordered collection of TLD records with the version
// and update timestamp of the database they came from. It is read-only
// after construction and safe for concurrent readers.
type RootZoneIndex struct {
	records   []string
	lookup    map[string]struct{}
	version   string
	updatedAt time.Time
}

// ConvertRootZoneDatabaseFromString parses the raw root zone text format.
func ConvertRootZoneDatabaseFromString(src string) (*RootZoneIndex, error) {
	return ConvertRootZoneDatabase(strings.NewReader(src))
}

// ConvertRootZoneDatabase streams the root zone text format. Exactly one
// comment line must carry the version header; every non-comment line is
// one TLD record, converted to its ASCII form if needed.
func ConvertRootZoneDatabase(r io.Reader) (*RootZoneIndex, error) {
	idx := &RootZoneIndex{lookup: make(map[string]struct{})}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			m := headerPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if idx.version != "" {
				return nil, derrors.SourceFormatError("root zone text carries more than one version header")
			}
			updatedAt, err := time.Parse(headerLayout, strings.TrimSpace(m[2]))
			if err != nil {
				return nil, derrors.SourceFormatError("root zone header carries a malformed date %q: %s", m[2], err)
			}
			idx.version = m[1]
			idx.updatedAt = updatedAt
			continue
		}

		record := line
		if !isASCII(line) {
			var err error
			record, err = idn.ToASCII(line, idn.DefaultAsciiFlags)
			if err != nil {
				return nil, derrors.SourceFormatError("canonicalizing root zone record %q: %s", line, err)
			}
		}
		idx.records = append(idx.records, record)
		idx.lookup[strings.ToLower(record)] = struct{}{}
	}
	err := scanner.Err()
	if err != nil {
		return nil, derrors.SourceFormatError("reading root zone text: %s", err)
	}

	if idx.version == "" {
		return nil, derrors.SourceFormatError("root zone text carries no version header")
	}
	if len(idx.records) == 0 {
		return nil, derrors.SourceFormatError("root zone text carries no records")
	}
	return idx, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// Records returns a copy of the TLD records in file order.
func (idx *RootZoneIndex) Records() []string {
	return append([]string(nil), idx.records...)
}

// Len returns the number of TLD records.
func (idx *RootZoneIndex) Len() int {
	return len(idx.records)
}

// Contains reports whether tld is a registered TLD. The comparison is
// case-insensitive.
func (idx *RootZoneIndex) Contains(tld string) bool {
	_, ok := idx.lookup[strings.ToLower(tld)]
	return ok
}

// Version returns the database version identifier.
func (idx *RootZoneIndex) Version() string {
	return idx.version
}

// UpdatedAt returns the Last Updated timestamp of the database.
func (idx *RootZoneIndex) UpdatedAt() time.Time {
	return idx.updatedAt
}

type rootZoneJSON struct {
	Records []string `json:"records"`
	Version string   `json:"version"`
	Update  string   `json:"update"`
}

// MarshalJSON implements json.Marshaler.
func (idx *RootZoneIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(rootZoneJSON{
		Records: idx.records,
		Version: idx.version,
		Update:  idx.updatedAt.Format(time.RFC3339),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (idx *RootZoneIndex) UnmarshalJSON(b []byte) error {
	var raw rootZoneJSON
	err := json.Unmarshal(b, &raw)
	if err != nil {
		return err
	}
	if raw.Version == "" || len(raw.Records) == 0 {
		return derrors.SourceFormatError("serialized root zone index is missing records or version")
	}
	updatedAt, err := time.Parse(time.RFC3339, raw.Update)
	if err != nil {
		return err
	}

	idx.records = raw.Records
	idx.version = raw.Version
	idx.updatedAt = updatedAt
	idx.lookup = make(map[string]struct{}, len(raw.Records))
	for _, record := range raw.Records {
		idx.lookup[strings.ToLower(record)] = struct{}{}
	}
	return nil
}
