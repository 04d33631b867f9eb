// inspect prints a batch, a dictionary or a model in human readable
// format.  For example:
/*
  $GOPATH/bin/inspect -content=model -file=./model.gz
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/godist/artm/core/batch"
	"github.com/godist/artm/core/phi"
	"github.com/godist/artm/core/utils"
	log "github.com/golang/glog"
)

var (
	content  = flag.String("content", "model", "{batch, dictionary, model}")
	filename = flag.String("file", "", "The file to inspect")
)

func main() {
	flag.Parse()

	var e error
	switch *content {
	case "batch":
		e = dumpBatch(os.Stdout, *filename)
	case "dictionary":
		dumpDictionary(os.Stdout, *filename)
	case "model":
		prettyPrintModel(os.Stdout, utils.LoadModelOrDie(*filename))
	default:
		e = fmt.Errorf("Unknown content %s", *content)
	}
	if e != nil {
		log.Fatal(e)
	}
}

func dumpBatch(w io.Writer, filename string) error {
	b, e := batch.Load(filename)
	if e != nil {
		return fmt.Errorf("Cannot load batch %s: %v", filename, e)
	}
	batch.PopulateClassId(b)
	fmt.Fprintf(w, "batch %s: %d tokens, %d items\n", b.Id, len(b.Token), b.Len())
	for _, item := range b.Item {
		fmt.Fprintf(w, "%d %s:", item.Id, item.Title)
		for i, id := range item.TokenId {
			fmt.Fprintf(w, " %s:%g", b.Tok(id), item.TokenWeight[i])
		}
		fmt.Fprintln(w)
	}
	return nil
}

func dumpDictionary(w io.Writer, filename string) {
	d := utils.LoadDictionaryOrDie(filename)
	fmt.Fprintf(w, "dictionary %s: %d tokens\n", d.Name(), d.Len())
	for _, e := range d.Entries() {
		fmt.Fprintf(w, "%-20s %10.6f %10g %6d\n", e.Token, e.Value, e.TF, e.DF)
	}
}

// prettyPrintModel prints model in human readable format.
func prettyPrintModel(w io.Writer, m phi.Matrix) {
	fmt.Fprintf(w, "%-20s", "")
	for _, t := range m.TopicNames() {
		fmt.Fprintf(w, " %10s", t)
	}
	fmt.Fprintln(w)
	for i := 0; i < m.TokenSize(); i++ {
		fmt.Fprintf(w, "%-20s", m.Token(i))
		for t := 0; t < m.TopicSize(); t++ {
			fmt.Fprintf(w, " %10.6f", m.Get(i, t))
		}
		fmt.Fprintln(w)
	}
}
