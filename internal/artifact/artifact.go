package artifact

import (
	"fmt"
	"path/filepath"
)

const (
	ModelFile                  = "no_show_model.json"
	AppointmentTypeEncoderFile = "label_encoder.json"
	DoctorEncoderFile          = "label_encoder_doctor.json"
)

// Bundle holds everything loaded from the model directory at startup.
// It is read-only after Load returns.
type Bundle struct {
	Model            Classifier
	ModelVersion     string
	Doctors          *Encoder
	AppointmentTypes *Encoder
}

func Load(dir string) (*Bundle, error) {
	model, err := LoadModel(filepath.Join(dir, ModelFile))
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}

	apptTypes, err := LoadEncoder("appointment_type", filepath.Join(dir, AppointmentTypeEncoderFile))
	if err != nil {
		return nil, err
	}

	doctors, err := LoadEncoder("doctor", filepath.Join(dir, DoctorEncoderFile))
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Model:            model,
		ModelVersion:     model.Version,
		Doctors:          doctors,
		AppointmentTypes: apptTypes,
	}, nil
}
