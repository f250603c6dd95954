package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/randomouscrap98/pngcarver/carve"
)

// Most commands need this, so... yeah
func PrintJson(obj interface{}) {
	rawjson, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		log.Fatalln("Couldn't serialize json: ", err)
	}
	fmt.Println(string(rawjson))
}

// The standard report every scanning command gives back
func scanReport(infile string, result *carve.ScanResult) map[string]interface{} {
	complete := 0
	cutshort := 0
	failed := 0
	for _, image := range result.Images {
		if image.Error != "" {
			failed++
		} else if image.Complete {
			complete++
		} else {
			cutshort++
		}
	}
	report := make(map[string]interface{})
	report["Infile"] = infile
	report["Probes"] = result.Probes
	report["FinalOffset"] = result.FinalOffset
	report["Detected"] = len(result.Images)
	report["Complete"] = complete
	report["CutShort"] = cutshort
	report["Failed"] = failed
	report["Images"] = result.Images
	return report
}
