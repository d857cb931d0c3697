package http

import (
	"errors"
	"net/http"

	"promopulse/internal/dataprocessing"
	apierrors "promopulse/internal/errors"
	"promopulse/internal/services"
	"promopulse/internal/simulator"
)

// mapServiceError translates service-layer errors into API errors so the
// central error handler renders the right problem response.
func mapServiceError(err error) error {
	var missingCol *dataprocessing.MissingColumnError
	if errors.As(err, &missingCol) {
		return apierrors.ErrMissingColumn(missingCol.Field)
	}

	var outOfBounds *simulator.DiscountOutOfBoundsError
	if errors.As(err, &outOfBounds) {
		return apierrors.ErrDiscountOutOfBounds(outOfBounds.Segment, outOfBounds.Discount, outOfBounds.Max)
	}

	switch {
	case errors.Is(err, services.ErrNoDataset):
		return apierrors.ErrDatasetNotFound
	case errors.Is(err, services.ErrInvalidFileType):
		return apierrors.New(http.StatusBadRequest, "INVALID_FILE_TYPE",
			"Only .csv, .xlsx and .xlsm uploads are supported")
	case errors.Is(err, services.ErrFileTooLarge):
		return apierrors.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			"Uploaded file exceeds the size limit")
	case errors.Is(err, services.ErrEmptyDataset):
		return apierrors.New(http.StatusUnprocessableEntity, "EMPTY_DATASET",
			"The uploaded file contains no data rows")
	case errors.Is(err, services.ErrInvalidInput):
		return apierrors.InvalidRequestWithError(err)
	case errors.Is(err, services.ErrUnknownExportKind):
		return apierrors.ErrValidation("kind", "Unknown export kind")
	default:
		return err
	}
}
