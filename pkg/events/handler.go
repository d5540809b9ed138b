package events

import "github.com/flaboy/aira-books/pkg/types"

type EventHandler interface {
	OnSyncCompleted(event *types.SyncCompletedEvent) error
	OnSyncFailed(event *types.SyncFailedEvent) error
}

var handler EventHandler

func SetEventHandler(h EventHandler) {
	handler = h
}

func EmitSyncCompleted(event *types.SyncCompletedEvent) error {
	if handler != nil {
		return handler.OnSyncCompleted(event)
	}
	return nil
}

func EmitSyncFailed(event *types.SyncFailedEvent) error {
	if handler != nil {
		return handler.OnSyncFailed(event)
	}
	return nil
}
