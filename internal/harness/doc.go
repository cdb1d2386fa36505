// Package harness runs expansion scenarios.
//
// A scenario expands one source unit and checks the output text, the
// expansion report and the diagnostics. Scenarios double as executable
// documentation of the rewrite.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	input: |
//	  #[async_trait]
//	  pub trait Video {
//	      async fn run(&self);
//	  }
//	config:
//	  call_scope: life
//	assertions:
//	  - type: output_contains
//	    text: "fn run<'life>(&'life self)"
//	  - type: method
//	    method: run
//	    receiver: by_reference
//	    bound: none
//	golden: true
//
// input_file may replace input; it is resolved against the scenario's
// directory.
//
// # Assertion Types
//
//   - output_contains / output_not_contains: a fragment of the expanded unit
//   - diagnostic: a diagnostic code, optionally with the source text it spans
//   - no_diagnostics: every annotated item expanded
//   - method: receiver, bound and call scope of a rewritten method
//   - item_count: the number of expanded items
//
// # Golden Files
//
// With golden set, tests compare the expanded output byte for byte against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/video.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
