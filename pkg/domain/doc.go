package domain

// domain package contains the identity vocabulary shared by every layer of the SDK.
//
// `domain/errors` exposes the error taxonomy: backend errors, entity errors and context errors.
//
// # Entities
//
// Everything the platform manages is an entity. Entities are addressed by keys,
//
//	store://{project}/{entity_type}/{kind}/{name}:{id}
//
// and tasks and runs, which have no name, by
//
//	store://{project}/{entity_type}/{kind}/{id}
//
// Core entities are:
//
// - `project`: the owner of every other entity. A project is addressed by its name.
//
// - `function` and `workflow`: executables. Their kind names a runtime ("container", "kfp", ...).
//
// - `task`: an action of an executable ("container+job"). Tasks carry infrastructure settings.
//
// - `run`: an execution of a task. Runs have a lifecycle, see State.
//
// - `artifact`, `dataitem` and `model`: materials, files or tables produced and consumed by runs.
//
// - `secret`: a named credential held by the backend.
