// Command matchctl inspects the assignment engine from the command line.
package main

func main() {
	Execute()
}
