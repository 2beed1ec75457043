// Package redis stores the run journal in Redis so several CI agents can
// share one history.
package redis
