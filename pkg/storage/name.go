package storage

import (
	"fmt"
	"regexp"

	"github.com/sentineldb/datasetmgr/pkg/dataset"
)

// tableNameRE is the same non-negotiable validation dataset.Custom applies
// to a custom name. It is re-checked here, on the derived table name itself,
// before any SQL string formatting: storage must never trust that a caller
// went through dataset.Custom to build the Identity it was handed.
var tableNameRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validatedTableName(id dataset.Identity) (string, error) {
	name := id.TableName()
	if !tableNameRE.MatchString(name) {
		return "", fmt.Errorf("%w: table name %q", dataset.ErrInvalidName, name)
	}
	return "dataset_" + name, nil
}

func validatedListTableName(id dataset.Identity) (string, error) {
	name := id.TableName()
	if !tableNameRE.MatchString(name) {
		return "", fmt.Errorf("%w: table name %q", dataset.ErrInvalidName, name)
	}
	return "dataset_list_" + name, nil
}
