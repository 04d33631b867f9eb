// print_model shows the top tokens of each topic of a trained model.
// It can output either text, or runs as a Web server and presents
// HTML format, depending on if -html is set.
package main

import (
	"flag"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"

	"github.com/godist/artm/core/utils"
	log "github.com/golang/glog"
)

func main() {
	flagModel := flag.String("model", "", "The model file")
	flagMaxTokensPerTopic := flag.Int("len", 50, "Max # tokens shown per topic")
	flagHtml := flag.String("html", "", "Display HTML instead generating file")
	flag.Parse()

	m := utils.LoadModelOrDie(*flagModel)
	descs := utils.DescribeTopics(m, *flagMaxTokensPerTopic)

	if len(*flagHtml) == 0 {
		printTopics(os.Stdout, descs)
		return
	}

	tmpl := template.Must(template.New("topics").Parse(kTopicDescTemplate))
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if e := tmpl.Execute(w, descs); e != nil {
			http.Error(w, e.Error(), http.StatusInternalServerError)
			log.Errorf("Cannot execute HTML template: %v", e)
		}
	})

	log.Infof("Listening on %s", *flagHtml)
	if e := http.ListenAndServe(*flagHtml, nil); e != nil {
		log.Fatalf("ListenAndServe failed: %v", e)
	}
}

func printTopics(w io.Writer, descs []*utils.TopicDesc) {
	for _, d := range descs {
		fmt.Fprintf(w, "Topic %05d %s:", d.Id, d.Name)
		for _, t := range d.Tokens {
			fmt.Fprintf(w, " %s (%.4f)", t.Token, t.Prob)
		}
		fmt.Fprintln(w)
	}
}

const (
	kTopicDescTemplate = `<html>
<body style="background-color: #CFEDFB">
  <table>
    <thead style="background-color: #046293; color: white;">
      <tr>
        <td>ID</td>
        <td>Name</td>
        <td colspan=100>Tokens</td>
      </tr>
    </thead>
    <tbody style="background-color: #046293; color: white;">
    {{range .}}
      <tr>
        <td>{{.Id}}</td>
        <td>{{.Name}}</td>
        {{range .Tokens}}
          <td style="background-color: #BFEFFF;">{{.Token}}</td>
          <td style="background-color: #00A0DC; color: white;">{{printf "%.4f" .Prob}}</td>
        {{end}}
      </tr>
    {{end}}
    </tbody>
  </body>
</html>
`
)
