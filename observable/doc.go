// Package observable implements property observation for plain values and
// computed properties.
//
// An Object stores values by key. A key may hold a Computed descriptor, in
// which case Get and Set invoke its function, optionally caching the result.
// Computed descriptors declare the keys they depend on; a change to any of
// those keys clears the dependent's cache and notifies the dependent's
// observers in the same flush.
//
// Notifications are delivered synchronously. Between BeginPropertyChanges and
// EndPropertyChanges, or while the object's Context is suspended, changed keys
// are coalesced and each observer is invoked at most once per key per flush.
//
// Observers on dotted keys ("a.b.c") are chain observers: they follow the
// objects reachable along the path and re-wire when an intermediate object is
// replaced.
package observable
