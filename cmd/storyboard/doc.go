// Command storyboard turns a plain-text story into a narrated video.
//
// Usage:
//
//	storyboard run story.txt          render (or resume) a story
//	storyboard runs                   list previous runs
//	storyboard show <run-id>          per-line artifact status
//	storyboard logs <run-id> [-f]     print or follow a run's log
//	storyboard runs prune             delete old runs and their artifacts
//	storyboard doctor                 check binaries and directories
//	storyboard config init            write a sample configuration
//	storyboard csv2txt in.csv out.txt convert a CSV export to a story file
package main
