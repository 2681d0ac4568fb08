package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// SubmitRequest is the body of a job submission.
//
// It is usually produced by [ParseSubmitParams] from a raw parameter string,
// so presets can store submission parameters the way a user would type them.
type SubmitRequest struct {
	// Image is the container image to run.
	Image string `json:"image"`

	// Command is the optional command executed inside the container.
	Command []string `json:"command,omitempty"`

	// Description is the display name attached to the job.
	Description string `json:"description,omitempty"`

	// Resources are the requested compute resources.
	Resources Resources `json:"resources"`

	// Volumes are storage mounts in "src:dst[:mode]" notation.
	Volumes []string `json:"volumes,omitempty"`

	// SSH requests an SSH server inside the job.
	SSH bool `json:"ssh,omitempty"`

	// HTTP exposes the given container port over HTTP, zero for none.
	HTTP int `json:"http,omitempty"`
}

// ParseSubmitParams parses a raw, shell-style parameter string into a
// [SubmitRequest].
//
// The first positional token is the image; remaining positional tokens form
// the command. Recognized flags:
//
//	-c, --cpu N        CPU cores (default 1)
//	-g, --gpu N        GPU count
//	    --gpu-model M  GPU hardware model
//	-m, --memory SIZE  memory amount (default "4G")
//	    --extshm       request extended shared memory
//	    --ssh          start an SSH server in the job
//	    --http PORT    expose PORT over HTTP
//	-v, --volume SPEC  storage mount, repeatable
//
// Quoting follows shell rules, so values with spaces work the same way they
// would on a command line.
func ParseSubmitParams(raw string) (SubmitRequest, error) {
	words, err := shellquote.Split(raw)
	if err != nil {
		return SubmitRequest{}, fmt.Errorf("bad job parameters: %w", err)
	}

	req := SubmitRequest{
		Resources: Resources{CPU: 1, Memory: "4G"},
	}

	var positional []string
	for i := 0; i < len(words); i++ {
		word := words[i]

		if !strings.HasPrefix(word, "-") || word == "-" {
			positional = append(positional, word)
			continue
		}

		// accept --flag=value as well as --flag value
		value := ""
		hasInline := false
		if idx := strings.Index(word, "="); idx != -1 {
			value = word[idx+1:]
			word = word[:idx]
			hasInline = true
		}

		next := func() (string, error) {
			if hasInline {
				return value, nil
			}
			if i+1 >= len(words) {
				return "", fmt.Errorf("flag %s requires a value", word)
			}
			i++
			return words[i], nil
		}

		switch word {
		case "-c", "--cpu":
			v, err := next()
			if err != nil {
				return SubmitRequest{}, err
			}
			cpu, err := strconv.ParseFloat(v, 64)
			if err != nil || cpu <= 0 {
				return SubmitRequest{}, fmt.Errorf("bad cpu value %q", v)
			}
			req.Resources.CPU = cpu
		case "-g", "--gpu":
			v, err := next()
			if err != nil {
				return SubmitRequest{}, err
			}
			gpu, err := strconv.Atoi(v)
			if err != nil || gpu < 0 {
				return SubmitRequest{}, fmt.Errorf("bad gpu value %q", v)
			}
			req.Resources.GPU = gpu
		case "--gpu-model":
			v, err := next()
			if err != nil {
				return SubmitRequest{}, err
			}
			req.Resources.GPUModel = v
		case "-m", "--memory":
			v, err := next()
			if err != nil {
				return SubmitRequest{}, err
			}
			req.Resources.Memory = v
		case "--extshm":
			req.Resources.SHM = true
		case "--ssh":
			req.SSH = true
		case "--http":
			v, err := next()
			if err != nil {
				return SubmitRequest{}, err
			}
			port, err := strconv.Atoi(v)
			if err != nil || port < 1 || port > 65535 {
				return SubmitRequest{}, fmt.Errorf("bad http port %q", v)
			}
			req.HTTP = port
		case "-v", "--volume":
			v, err := next()
			if err != nil {
				return SubmitRequest{}, err
			}
			req.Volumes = append(req.Volumes, v)
		default:
			return SubmitRequest{}, fmt.Errorf("unknown flag %s", word)
		}
	}

	if len(positional) == 0 {
		return SubmitRequest{}, fmt.Errorf("job parameters must include an image")
	}
	req.Image = positional[0]
	req.Command = positional[1:]
	if len(req.Command) == 0 {
		req.Command = nil
	}

	return req, nil
}
