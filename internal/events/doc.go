// Package events provides an in-process event bus that decouples the task
// service from the side effects of its writes.
//
// Services dispatch events through the Dispatcher interface without knowing
// which listeners consume them. Listeners are registered per event type at
// startup and run synchronously in registration order; their failures are
// logged and never reach the dispatching caller.
package events
