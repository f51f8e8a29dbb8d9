package versiongraph

import (
	"errors"
	"fmt"
)

var errEmptyDocumentID = errors.New("lease document id is empty")

func errUnknownLease(leaseID string) error {
	return fmt.Errorf("lease %q is not registered", leaseID)
}

func errUnknownConflict(conflictID string) error {
	return fmt.Errorf("conflict %q is not indexed", conflictID)
}
