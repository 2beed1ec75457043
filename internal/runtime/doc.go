/*
Package runtime executes a resolved task plan.

The Executor is strictly sequential: the next task starts only after the
previous action (and any process it spawned) has returned. There is no
cancellation beyond halting on the first failure.
*/
package runtime
