// Package sensor decodes the raw environmental fields a purifier reports
// into temperature, humidity and a 1..5 air-quality index.
//
// Raw values arrive as JSON numbers or as strings. Devices that have not
// finished warming up report the sentinel "INIT"; that, a missing field or
// any other non-numeric value decodes to 0 and never fails.
//
// Air quality is the worst (highest) per-sensor bucket for the device's
// generation:
//
//	PM2.5  <=35:1  <=53:2  <=70:3  <=150:4  else 5
//	PM10   <=50:1  <=75:2  <=100:3 <=350:4  else 5
//	VOC    <=3:1   <=6:2   <=8:3   else 4   (raw x 0.125)
//	NO2    <=30:1  <=60:2  <=80:3  <=90:4   else 5
//
// Legacy devices classify their dust proxy (pact) with the PM2.5 bounds and
// their VOC proxy (vact) with the VOC bounds.
package sensor
