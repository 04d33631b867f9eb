// artm is a multi-threading trainer of additive regularized topic
// models.  It trains over batch files in a directory:
/*
  $GOPATH/bin/artm \
    -disk_path=./testdata/batches \
    -dictionary=./testdata/dictionary.gz \
    -topics=10 -passes=20 -model=./model.gz
*/
// or, with an empty -disk_path, over batches pushed by cmd/push to the
// batch service served on -addr.  Regularizers are given by a JSON
// config file:
/*
  {
    "NumTopics": 10,
    "Regularizers": [
      {"Name": "smooth", "Type": "smooth_sparse_phi", "Tau": 0.1,
       "Config": {"topic_name": ["topic_9"]}},
      {"Name": "sparse", "Type": "smooth_sparse_phi", "Tau": -0.1,
       "Config": {"topic_name": ["topic_0", "topic_1"],
                  "transform_config": {"transform_type": "logarithm"}}}
    ]
  }
*/
package main

import (
	"flag"
	"fmt"
	"net/rpc"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/godist/artm/core/processor"
	"github.com/godist/artm/core/utils"
	"github.com/godist/artm/srv"
	log "github.com/golang/glog"
)

func main() {
	flagAddr := flag.String("addr", ":6060", "HTTP status page and batch service address")
	flagConfigFile := flag.String("config_file", "", "JSON config file, overrides -config")
	flagDiskPath := flag.String("disk_path", "", "Directory of batch files; empty to accept pushed batches")
	flagDictionary := flag.String("dictionary", "", "Dictionary file")
	flagGather := flag.Bool("gather", false, "Gather the dictionary from batches if -dictionary is empty")
	flagTopics := flag.Int("topics", 0, "Number of topics to be learned")
	flagProcessors := flag.Int("processors", 0, "Number of processors, 0 for the number of CPUs")
	flagDocPasses := flag.Int("doc_passes", 0, "Inference passes of each document")
	flagPasses := flag.Int("passes", 10, "Passes over all batches")
	flagOnline := flag.Bool("online", false, "Update the model every -update_every batches")
	flagUpdateEvery := flag.Int("update_every", 1, "Batches between online updates")
	flagTau0 := flag.Float64("tau0", 1024, "Online weight offset")
	flagKappa := flag.Float64("kappa", 0.7, "Online weight exponent")
	flagMinBatches := flag.Int("min_batches", 1, "Wait for pushed batches before training")
	flagInitModel := flag.String("init_model", "", "Start from this model instead of random")
	flagModel := flag.String("model", "", "The model output")
	flagTopWords := flag.Int("top_words", 10, "Print top words of each topic, 0 to disable")
	flagGoMaxProcs := flag.Int("GOMAXPROCS", -1, "GOMAXPROCS")
	flagNamenode := flag.String("namenode", "", "HDFS namenode address")
	flagWebHDFS := flag.String("webhdfs", "", "WebHDFS address")
	flagHDFSUser := flag.String("hdfs_user", "", "HDFS user")
	cfg := new(srv.Config)
	cfg.RegisterAsFlag()
	flag.Parse()

	utils.HookupHDFSOrDie(*flagNamenode, *flagWebHDFS, *flagHDFSUser)

	if len(*flagConfigFile) > 0 {
		c, e := srv.LoadConfig(*flagConfigFile)
		if e != nil {
			log.Fatalf("%v", e)
		}
		cfg = c
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "disk_path":
			cfg.DiskPath = *flagDiskPath
		case "dictionary":
			cfg.DictionaryFile = *flagDictionary
		case "topics":
			cfg.NumTopics, cfg.TopicNames = *flagTopics, nil
		case "processors":
			cfg.NumProcessors = *flagProcessors
		case "doc_passes":
			cfg.NumDocumentPasses = *flagDocPasses
		case "model":
			cfg.ModelFile = *flagModel
		}
	})

	is := utils.EnableExpvar(*flagAddr)
	log.Infof("Initialization start at %s", is.Start().StartTime)

	// A hack on setting the MAXPROCS.
	if *flagGoMaxProcs < 0 {
		runtime.GOMAXPROCS(runtime.NumCPU())
	} else {
		runtime.GOMAXPROCS(*flagGoMaxProcs)
	}
	log.Infof("Running with MAXPROCS %d", runtime.GOMAXPROCS(-1))

	m, e := srv.NewMaster(cfg)
	if e != nil {
		log.Fatalf("Cannot create master: %v", e)
	}
	log.Infof("Configuration:\n%s", cfg)

	srv.PublishTasks(m)
	if len(cfg.DiskPath) == 0 {
		if e := srv.RegisterBatchService(rpc.DefaultServer, m); e != nil {
			log.Fatalf("Cannot register batch service: %v", e)
		}
		rpc.HandleHTTP()
		log.Infof("Waiting for %d batches pushed to %s", *flagMinBatches, *flagAddr)
		for len(m.Tasks()) < *flagMinBatches {
			time.Sleep(time.Second)
		}
	}

	if len(*flagInitModel) > 0 {
		if e := m.SetModel(utils.LoadModelOrDie(*flagInitModel)); e != nil {
			log.Fatalf("Cannot use model %s: %v", *flagInitModel, e)
		}
	} else {
		if len(cfg.InitialDictionary) == 0 && *flagGather {
			d, e := m.GatherDictionary("gathered")
			if e != nil {
				log.Fatalf("Cannot gather dictionary: %v", e)
			}
			cfg.InitialDictionary = d.Name()
		}
		if e := m.Initialize(cfg.InitialDictionary); e != nil {
			log.Fatalf("Cannot initialize model: %v", e)
		}
	}
	log.Infof("Initialization done in %s", is.End(0.0).Duration)

	sigs := make(chan os.Signal, 1)
	exit := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		for sig := range sigs {
			log.Infof("Caught signal, will checkpoint and exit ...")
			exit <- sig
		}
	}()

Passes:
	for pass := 0; pass < *flagPasses; pass++ {
		select {
		case <-exit:
			log.Infof("Early terminated by signal.")
			break Passes
		default:
		}

		log.Infof("Pass %04d start at %s", pass, is.Start().StartTime)
		var stats processor.Stats
		if *flagOnline {
			stats, e = m.FitOnline(*flagUpdateEvery, *flagTau0, *flagKappa)
		} else {
			stats, e = m.FitOffline(1)
		}
		if e != nil {
			log.Fatalf("Pass %04d failed: %v", pass, e)
		}
		log.Infof("Pass %04d perplexity %f", pass, stats.Perplexity())
		log.Infof("Pass %04d done in %s", pass, is.End(stats.Perplexity()).Duration)
	}

	utils.SaveModel(m.Model(), cfg.ModelFile)

	if *flagTopWords > 0 {
		for _, d := range utils.DescribeTopics(m.Model(), *flagTopWords) {
			fmt.Printf("%s:", d.Name)
			for _, t := range d.Tokens {
				fmt.Printf(" %s(%.4f)", t.Token, t.Prob)
			}
			fmt.Println()
		}
	}
	log.Flush()
}
