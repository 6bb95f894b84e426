package errprocess

import (
	"errors"
	"realtime_chat_service/pkg/logger"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap log err with a message and hand it back unchanged
func Wrap(msg string, err error) error {
	logger.Log.Errorf(msg, err)
	return err
}
