package render

// Shader das partes da cena: textura * colDiffuse, sol direcional com ambiente e
// neblina na direção da cor do horizonte.
const litVertexShader = `
#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
in vec4 vertexColor;

uniform mat4 mvp;
uniform mat4 matModel;
uniform mat4 matNormal;

out vec2 fragTexCoord;
out vec4 fragColor;
out vec3 fragNormal;
out vec3 fragWorldPos;

void main() {
    fragTexCoord = vertexTexCoord;
    fragColor = vertexColor;
    fragNormal = normalize(vec3(matNormal * vec4(vertexNormal, 0.0)));
    fragWorldPos = vec3(matModel * vec4(vertexPosition, 1.0));
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

const litFragmentShader = `
#version 330
in vec2 fragTexCoord;
in vec4 fragColor;
in vec3 fragNormal;
in vec3 fragWorldPos;

uniform sampler2D texture0;
uniform vec4 colDiffuse;
uniform vec3 sunDir;
uniform vec3 camPos;
uniform vec4 fogColor;
uniform float fogDensity;

out vec4 finalColor;

void main() {
    vec4 texelColor = texture(texture0, fragTexCoord);
    if (texelColor.a < 0.05) discard;

    vec4 base = texelColor * fragColor * colDiffuse;

    float diffuse = max(dot(normalize(fragNormal), -normalize(sunDir)), 0.0);
    vec3 lit = base.rgb * (0.45 + 0.65 * diffuse);

    float dist = length(fragWorldPos - camPos);
    float fog = 1.0 - exp(-pow(dist * fogDensity, 2.0));
    lit = mix(lit, fogColor.rgb, clamp(fog, 0.0, 1.0));

    finalColor = vec4(lit, base.a);
}
`
