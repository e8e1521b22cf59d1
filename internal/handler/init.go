package handler

import (
	"github.com/code/app-dub-agpl/internal/assets"
	"github.com/code/app-dub-agpl/internal/flags"
	"github.com/code/app-dub-agpl/internal/slug"
	"github.com/code/app-dub-agpl/pkg/storage"
)

// Handler collaborators, wired once at startup. Tests swap in fakes.
var (
	assetStore   *storage.Client
	cleanupQueue assets.Queue
	flagStore    flags.Store
	slugChecker  slug.ReservedChecker
)

// Init wires the external collaborators used by the handlers
func Init(store *storage.Client, queue assets.Queue, flagSt flags.Store, reserved slug.ReservedChecker) {
	assetStore = store
	cleanupQueue = queue
	flagStore = flagSt
	slugChecker = reserved
}
