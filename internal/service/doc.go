// Package service contains the application use cases of the task list.
//
// Its core is TaskService, which coordinates four collaborators around every
// task operation:
//
//   - a lock port that serializes writers of the same task,
//   - the task repository, whose writes run inside store.RunInTransaction,
//   - a cache port read cache-aside and invalidated after each commit,
//   - an event dispatcher that receives one audit event per mutation.
//
// Services receive their dependencies through constructor injection and never
// reference a concrete infrastructure implementation.
package service
