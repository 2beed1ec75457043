/*
Package buildtasks provides the built-in task actions of kiln.

Every action is a method on a Catalog whose inputs (configuration, project,
process runner, tool locator, version resolver) are passed in explicitly
through Env. Tasks declared in kiln.yaml refer to these actions by handle:

	clean       remove the results and artifacts directories
	version     write the assembly info file and patch the manifest version
	connection  write the connection string file
	exec        run the task's command lines in order
*/
package buildtasks
