package service

import (
	"fmt"

	"github.com/pxbackup-system/cluster-orchestration/internal/utils"
)

var ErrCreationInProgress = utils.NewError(utils.ErrCodeConflict,
	"cluster creation already in progress, retry later")

func ErrClusterExists(name string) *utils.Error {
	return utils.NewError(utils.ErrCodeAlreadyExists,
		fmt.Sprintf("cluster %s already exists, use force=true to recreate", name))
}

func ErrClusterNotFound(name string) *utils.Error {
	return utils.NewError(utils.ErrCodeNotFound,
		fmt.Sprintf("cluster %s not found", name))
}
