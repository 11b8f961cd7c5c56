package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ReadIdeaBatches parses an idea source log into its batch records.
// Records are assumed well-formed; a malformed line is a hard error so that
// corruption is caught rather than silently truncating the candidate pool.
func ReadIdeaBatches(path string) ([]IdeaBatchRecord, error) {
	// #nosec G304 - path comes from operator configuration
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open idea log %s: %w", path, err)
	}
	defer file.Close()

	var batches []IdeaBatchRecord
	scanner := bufio.NewScanner(file)
	// Generation batches with long raw responses can exceed the default
	// scanner buffer.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var batch IdeaBatchRecord
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, fmt.Errorf("malformed record at %s:%d: %w", path, line, err)
		}
		batches = append(batches, batch)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read idea log %s: %w", path, err)
	}
	return batches, nil
}

// CollectIdeas concatenates the ideas of every batch in log order,
// producing the candidate pool for a run seeded from a previous log.
func CollectIdeas(batches []IdeaBatchRecord) []string {
	var ideas []string
	for _, batch := range batches {
		ideas = append(ideas, batch.Ideas...)
	}
	return ideas
}
