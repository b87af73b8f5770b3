package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/kma-forecast/internal/forecast"
	"github.com/i474232898/kma-forecast/internal/store"
	"github.com/i474232898/kma-forecast/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")
	resolver := service.Resolver()

	v1.Get("/grid", func(c *fiber.Ctx) error {
		q := coordinateQuery{Lat: c.Query("lat"), Lon: c.Query("lon")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		coord, err := q.coordinate()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cell, err := forecast.Project(coord)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(fiber.Map{
			"coordinate": coord,
			"grid":       cell,
			"center":     cell.Coordinate(),
		})
	})

	v1.Get("/issue", func(c *fiber.Ctx) error {
		q := issueQuery{Product: c.Query("product"), At: c.Query("at")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		product, err := forecast.ParseProduct(q.Product)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		at, err := parseOptionalTime(q.At)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		issue, err := resolver.Scheduler().ResolveIssue(product, at)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(issue)
	})

	v1.Get("/parse", func(c *fiber.Ctx) error {
		q := parseQuery{Phrase: c.Query("phrase"), At: c.Query("at")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		at, err := parseOptionalTime(q.At)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		window := resolver.Parser().Parse(q.Phrase, at)
		return c.JSON(fiber.Map{
			"vocabulary": resolver.Parser().Vocabulary(),
			"window":     window,
			"target":     window.Target(),
			"product":    forecast.ChooseProduct(window),
		})
	})

	v1.Get("/weather/resolve", func(c *fiber.Ctx) error {
		// phrase and location outlive the request in the answer history.
		q := resolveQuery{
			Phrase:   utils.CopyString(c.Query("phrase")),
			Location: utils.CopyString(c.Query("location")),
			Lat:      c.Query("lat"),
			Lon:      c.Query("lon"),
			At:       c.Query("at"),
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		query, err := q.toQuery()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		answer, err := service.Resolve(c.UserContext(), query)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(answer)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q := regionQuery{Region: c.Query("region")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		answer, err := service.GetLatest(q.Region)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested region")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(answer)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		answers, err := service.GetRange(req.Region.Region, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"region":  req.Region.Region,
			"from":    req.From,
			"to":      req.To,
			"answers": answers,
		})
	})
}

// ErrorHandler renders every error as a JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// toHTTPError maps resolution errors onto status codes.
func toHTTPError(err error) error {
	var (
		perr *forecast.ProjectionError
		uerr *forecast.UpstreamError
	)
	switch {
	case errors.As(err, &perr):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, forecast.ErrNotFound), errors.Is(err, weather.ErrUnknownLocation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.As(err, &uerr):
		return fiber.NewError(fiber.StatusBadGateway, "weather provider unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve weather")
	}
}

// coordinateQuery holds query parameters for a WGS84 position.
type coordinateQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func (q coordinateQuery) coordinate() (forecast.Coordinate, error) {
	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return forecast.Coordinate{}, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return forecast.Coordinate{}, errors.New("invalid lon")
	}
	return forecast.Coordinate{Latitude: lat, Longitude: lon}, nil
}

type issueQuery struct {
	Product string `validate:"required"`
	At      string
}

type parseQuery struct {
	Phrase string `validate:"max=200"`
	At     string
}

// resolveQuery holds query parameters for the resolve endpoint. lat and lon
// come as a pair and take precedence over location.
type resolveQuery struct {
	Phrase   string `validate:"max=200"`
	Location string `validate:"max=100"`
	Lat      string `validate:"required_with=Lon,omitempty,latitude"`
	Lon      string `validate:"required_with=Lat,omitempty,longitude"`
	At       string
}

func (q resolveQuery) toQuery() (weather.Query, error) {
	at, err := parseTimeIfSet(q.At)
	if err != nil {
		return weather.Query{}, err
	}
	query := weather.Query{Phrase: q.Phrase, Location: q.Location, At: at}
	if q.Lat != "" {
		coord, err := coordinateQuery{Lat: q.Lat, Lon: q.Lon}.coordinate()
		if err != nil {
			return weather.Query{}, err
		}
		query.Coordinate = &coord
	}
	return query, nil
}

// regionQuery holds query parameters for identifying a stored region.
type regionQuery struct {
	Region string `validate:"required,max=100"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Region regionQuery
	From   time.Time `validate:"required"`
	To     time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Region = regionQuery{Region: c.Query("region")}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseOptionalTime returns now when s is empty.
func parseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return parseTime(s)
}

// parseTimeIfSet returns the zero time when s is empty, leaving the choice of clock to the service.
func parseTimeIfSet(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseTime(s)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
