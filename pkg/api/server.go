// Package api provides the REST API server for smfplay
package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/james-see/smfplay/pkg/midifile"
	"github.com/james-see/smfplay/pkg/player"
	"github.com/james-see/smfplay/pkg/port"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title smfplay API
// @version 1.0
// @description API for checking, tracing, analyzing and extracting Standard MIDI Files
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int) error {
	return NewRouter().Run(fmt.Sprintf(":%d", port))
}

// NewRouter builds the API routes
func NewRouter() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/check", handleCheck)
		v1.POST("/dump", handleDump)
		v1.POST("/analyze", handleAnalyze)
		v1.POST("/extract", handleExtract)
		v1.GET("/ports", listPorts)
		v1.GET("/formats", listFormats)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "smfplay",
	})
}

// listFormats godoc
// @Summary List accepted formats
// @Description Returns the accepted input formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats":    []string{string(player.FormatMIDI), string(player.FormatGzip)},
		"extensions": []string{".mid", ".midi", ".smf", ".kar", ".gz"},
	})
}

// listPorts godoc
// @Summary List MIDI output ports
// @Description Returns the output ports of the host MIDI driver
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]string
// @Router /api/v1/ports [get]
func listPorts(c *gin.Context) {
	ports := port.OutPorts()
	if ports == nil {
		ports = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}

// handleCheck godoc
// @Summary Check a MIDI file
// @Description Decodes every track and reports the first structural error
// @Tags midi
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to check"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/check [post]
func handleCheck(c *gin.Context) {
	p, data, ok := load(c)
	if !ok {
		return
	}
	if err := p.Check(data, nil); err != nil {
		decodeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// handleDump godoc
// @Summary Trace a MIDI file
// @Description Returns the event trace of every track in file order
// @Tags midi
// @Accept multipart/form-data
// @Produce plain
// @Param file formData file true "MIDI file to trace"
// @Param debug query int false "Trace bits: 1 deltas, 2 notes, 4 events, 8 metas (default 15)"
// @Success 200 {string} string
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/dump [post]
func handleDump(c *gin.Context) {
	p, data, ok := load(c)
	if !ok {
		return
	}
	if _, set := c.GetQuery("debug"); !set {
		p.Config().Debug = midifile.DumpDeltas | midifile.DumpNotes | midifile.DumpEvents | midifile.DumpMetas
	}
	var out strings.Builder
	if err := p.Check(data, &out); err != nil {
		decodeFailure(c, err)
		return
	}
	c.String(http.StatusOK, out.String())
}

// handleAnalyze godoc
// @Summary Analyze a MIDI file
// @Description Plays the file against a simulated clock and returns its duration and event counts
// @Tags midi
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "MIDI file to analyze"
// @Param speed query int false "Speed factor in percent (default 100)"
// @Param bars query string false "Excerpt [FACTORx][[FIRST]-][LAST]"
// @Success 200 {object} player.Analysis
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/analyze [post]
func handleAnalyze(c *gin.Context) {
	p, data, ok := load(c)
	if !ok {
		return
	}
	a, err := p.Analyze(data)
	if err != nil {
		decodeFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// handleExtract godoc
// @Summary Extract tracks
// @Description Re-encodes the selected track, transposed and filtered, into a new MIDI file
// @Tags midi
// @Accept multipart/form-data
// @Produce application/octet-stream
// @Param file formData file true "MIDI file"
// @Param track query int false "Track to keep, from 1 (default all)"
// @Param transpose query int false "Semitones"
// @Success 200 {file} binary
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/extract [post]
func handleExtract(c *gin.Context) {
	p, data, ok := load(c)
	if !ok {
		return
	}
	result, err := p.Extract(data)
	if err != nil {
		decodeFailure(c, err)
		return
	}

	// Generate output filename
	outputName := "extracted.mid"
	if _, header, err := c.Request.FormFile("file"); err == nil {
		base := strings.TrimSuffix(filepath.Base(header.Filename), ".gz")
		outputName = strings.TrimSuffix(base, filepath.Ext(base)) + "-extract.mid"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
	c.Data(http.StatusOK, "audio/midi", result)
}

// load reads the uploaded file and builds a player from the query
func load(c *gin.Context) (*player.Player, []byte, bool) {
	cfg, err := runConfig(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := player.Read(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return nil, nil, false
	}
	return player.New(cfg, player.Options{}), data, true
}

// runConfig maps query parameters onto a run configuration
func runConfig(c *gin.Context) (*midifile.RunConfig, error) {
	cfg := midifile.DefaultRunConfig()
	ints := []struct {
		name string
		dst  *int
	}{
		{"transpose", &cfg.Transpose},
		{"drum", &cfg.DrumChannel},
		{"speed", &cfg.SpeedFactor},
	}
	for _, q := range ints {
		if v, ok := c.GetQuery(q.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q", q.name, v)
			}
			*q.dst = n
		}
	}
	if v, ok := c.GetQuery("debug"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid debug %q", v)
		}
		cfg.Debug = midifile.DebugFlags(n)
	}
	if v, ok := c.GetQuery("track"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid track %q", v)
		}
		cfg.ExtractTrack = &n
	}
	if v, ok := c.GetQuery("bars"); ok {
		if err := cfg.ParseBars(v); err != nil {
			return nil, err
		}
	}
	cfg.FreezeChannel = c.Query("freeze") == "true"
	cfg.ChannelZero = c.Query("zero") == "true"
	return cfg, cfg.Validate()
}

// decodeFailure reports a structural error with its location when known
func decodeFailure(c *gin.Context, err error) {
	body := gin.H{"valid": false, "error": err.Error()}
	var de *midifile.DecodeError
	if errors.As(err, &de) {
		body["track"] = de.Track
		body["offset"] = de.Offset
	}
	c.JSON(http.StatusUnprocessableEntity, body)
}
