/*
Package ports defines the driven ports (interfaces) of kiln.

# Key Interfaces

  - RunStore: persists run journal entries so past builds can be listed and inspected.

RunStoreContract is a reusable test suite every RunStore adapter runs.
*/
package ports
