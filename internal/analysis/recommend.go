package analysis

// Recommendation is the human-readable interpretation of a prediction:
// category, situation message, and suggested operator action.
type Recommendation struct {
	Tipo          string
	Mensaje       string
	Recomendacion string
}

// Operating ranges used to pick the dominant anomaly when the model
// raises an alert. Values come from the plant's mesophilic operating
// manual.
const (
	tempMinC  = 20.0
	tempMaxC  = 45.0
	presMinK  = 5.0
	presMaxK  = 60.0
	gasMaxPPM = 3000.0
)

// Recommend maps (alert flag, raw sensor values) to a recommendation.
// It is a pure lookup: the same inputs always yield the same entry. The
// anomaly checks run in fixed priority order (temperature, pressure,
// gas) so the reported category is deterministic when several values
// are out of range.
func Recommend(alerta int, temperatura, presion, gas float64) Recommendation {
	if alerta == 0 {
		return Recommendation{
			Tipo:          "Operación Normal",
			Mensaje:       "Condiciones dentro de los rangos esperados.",
			Recomendacion: "Continúe con el monitoreo habitual.",
		}
	}
	switch {
	case temperatura > tempMaxC:
		return Recommendation{
			Tipo:          "Temperatura Alta",
			Mensaje:       "La temperatura del biodigestor supera el rango mesofílico.",
			Recomendacion: "Reduzca la carga orgánica y ventile la cámara hasta estabilizar la temperatura.",
		}
	case temperatura < tempMinC:
		return Recommendation{
			Tipo:          "Temperatura Baja",
			Mensaje:       "La temperatura del biodigestor está por debajo del rango mesofílico.",
			Recomendacion: "Revise el aislamiento térmico y considere recircular sustrato caliente.",
		}
	case presion > presMaxK:
		return Recommendation{
			Tipo:          "Presión Alta",
			Mensaje:       "La presión de biogás excede el límite seguro de la cámara.",
			Recomendacion: "Libere gas por la válvula de alivio y verifique obstrucciones en la salida.",
		}
	case presion < presMinK:
		return Recommendation{
			Tipo:          "Presión Baja",
			Mensaje:       "La presión de biogás es inferior a la esperada para un proceso en marcha.",
			Recomendacion: "Inspeccione fugas en sellos y conexiones de la campana de gas.",
		}
	case gas > gasMaxPPM:
		return Recommendation{
			Tipo:          "Gas Elevado",
			Mensaje:       "La concentración de metano en el entorno supera el umbral de seguridad.",
			Recomendacion: "Ventile el área y revise el sistema de conducción de biogás de inmediato.",
		}
	default:
		return Recommendation{
			Tipo:          "Anomalía Detectada",
			Mensaje:       "El modelo detectó condiciones anómalas en la combinación de variables.",
			Recomendacion: "Revise las lecturas recientes y el estado general del proceso.",
		}
	}
}
